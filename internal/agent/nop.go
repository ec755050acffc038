package agent

import "context"

// NopNotifier discards export notices
type NopNotifier struct{}

// NotifyExport does nothing
func (NopNotifier) NotifyExport(context.Context, ExportNotice) error { return nil }
