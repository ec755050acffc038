package types

import "time"

// JobStatus is the aggregate status of a catalog run
type JobStatus string

// JobStatus constants
const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobPartial    JobStatus = "partial"
)

// Valid reports whether s is a known job status
func (s JobStatus) Valid() bool {
	switch s {
	case JobProcessing, JobCompleted, JobFailed, JobPartial:
		return true
	}
	return false
}

// DefaultJobName labels jobs started without a source file
const DefaultJobName = "Sample Catalog"

// Job is one catalog-wide enrichment run
type Job struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	ProductCount int               `json:"productCount"`
	Date         time.Time         `json:"date"`
	Status       JobStatus         `json:"status"`
	Products     []EnrichedProduct `json:"products"`
}

// CountByStatus returns how many products are in the given state
func (j *Job) CountByStatus(status ProductStatus) int {
	n := 0
	for _, p := range j.Products {
		if p.Status == status {
			n++
		}
	}
	return n
}
