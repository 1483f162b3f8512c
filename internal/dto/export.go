package dto

import "github.com/lumalearn/analytics-api/internal/models"

// ExportRequest asks for an asynchronous report export.
type ExportRequest struct {
	Kind      models.ReportKind   `json:"kind" binding:"required,oneof=learning progress insights"`
	ChildID   string              `json:"child_id" binding:"required"`
	Timeframe string              `json:"timeframe" binding:"omitempty,oneof=week month quarter"`
	Format    models.ExportFormat `json:"format" binding:"required,oneof=csv pdf"`
}

// ExportJobResponse acknowledges a queued export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ExportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job state to clients.
type ExportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ExportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
