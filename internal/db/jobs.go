package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonathan/catalog-enricher/internal/types"
)

// JobFilter narrows ListJobs. Zero values match everything.
type JobFilter struct {
	// Query matches job names case-insensitively as a substring
	Query  string
	Status types.JobStatus
	Limit  int
}

// Stats are the dashboard metrics over all jobs
type Stats struct {
	TotalJobs      int `json:"total_jobs"`
	TotalProducts  int `json:"total_products"`
	ActiveJobs     int `json:"active_jobs"`
	CompletedJobs  int `json:"completed_jobs"`
	CompletionRate int `json:"completion_rate"`
}

// CreateJob inserts a processing job
func (db *DB) CreateJob(ctx context.Context, job *types.Job) error {
	_, err := db.sql.ExecContext(ctx,
		`INSERT INTO jobs (id, name, product_count, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		job.ID, job.Name, job.ProductCount, string(job.Status), job.Date.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

// FinalizeJob stores the terminal status and products of a job. A job can
// be finalized once.
func (db *DB) FinalizeJob(ctx context.Context, job *types.Job) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin finalize tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixNano()
	res, err := tx.ExecContext(ctx,
		`UPDATE jobs SET status = ?, product_count = ?, finalized_at = ?
		 WHERE id = ? AND finalized_at IS NULL`,
		string(job.Status), job.ProductCount, now, job.ID,
	)
	if err != nil {
		return fmt.Errorf("finalize job %s: %w", job.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE id = ?`, job.ID).Scan(&exists); err != nil {
			return fmt.Errorf("lookup job %s: %w", job.ID, err)
		}
		if exists == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, job.ID)
		}
		return fmt.Errorf("%w: %s", ErrJobFinalized, job.ID)
	}

	if err := writeProducts(ctx, tx, job.ID, job.Products, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

// SaveProducts replaces the stored products of a finalized job with a
// reviewed copy.
func (db *DB) SaveProducts(ctx context.Context, jobID string, products []types.EnrichedProduct) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var finalized sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT finalized_at FROM jobs WHERE id = ?`, jobID).Scan(&finalized)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	if err != nil {
		return fmt.Errorf("lookup job %s: %w", jobID, err)
	}
	if !finalized.Valid {
		return fmt.Errorf("job %s is still processing", jobID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM products WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("clear products of job %s: %w", jobID, err)
	}
	if err := writeProducts(ctx, tx, jobID, products, time.Now().UnixNano()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func writeProducts(ctx context.Context, tx *sql.Tx, jobID string, products []types.EnrichedProduct, now int64) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (job_id, position, product_id, status, body, updated_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare product insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, p := range products {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal product %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, jobID, i, p.ID, string(p.Status), string(body), now); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ID, err)
		}
	}
	return nil
}

// GetJob returns a job with its products
func (db *DB) GetJob(ctx context.Context, id string) (*types.Job, error) {
	row := db.sql.QueryRowContext(ctx,
		`SELECT id, name, product_count, status, created_at FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}

	rows, err := db.sql.QueryContext(ctx,
		`SELECT body FROM products WHERE job_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list products of job %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	job.Products = []types.EnrichedProduct{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		var p types.EnrichedProduct
		if err := json.Unmarshal([]byte(body), &p); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		job.Products = append(job.Products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return job, nil
}

// ListJobs returns matching jobs newest first, without their products
func (db *DB) ListJobs(ctx context.Context, filter JobFilter) ([]types.Job, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "instr(lower(name), lower(?)) > 0")
		args = append(args, q)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT id, name, product_count, status, created_at FROM jobs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := []types.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// Stats computes the dashboard metrics
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := db.sql.QueryRowContext(ctx,
		`SELECT COUNT(1),
		        COALESCE(SUM(product_count), 0),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		 FROM jobs`,
		string(types.JobProcessing), string(types.JobCompleted),
	).Scan(&s.TotalJobs, &s.TotalProducts, &s.ActiveJobs, &s.CompletedJobs)
	if err != nil {
		return Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	if s.TotalJobs > 0 {
		s.CompletionRate = int(math.Round(float64(s.CompletedJobs) / float64(s.TotalJobs) * 100))
	}
	return s, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*types.Job, error) {
	var (
		job       types.Job
		status    string
		createdAt int64
	)
	if err := row.Scan(&job.ID, &job.Name, &job.ProductCount, &status, &createdAt); err != nil {
		return nil, err
	}
	job.Status = types.JobStatus(status)
	job.Date = time.Unix(0, createdAt)
	return &job, nil
}
