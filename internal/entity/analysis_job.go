package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/mediscan/constants"
)

// AnalysisJob tracks one document through the batch queue.
type AnalysisJob struct {
	ID           uuid.UUID           `json:"id"`
	Path         string              `json:"path"`
	Status       constants.JobStatus `json:"status"`
	QueuedAt     time.Time           `json:"queued_at"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Medicines    int                 `json:"medicines"`
	RecordSource string              `json:"record_source,omitempty"`
}
