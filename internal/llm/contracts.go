package llm

import (
	"context"

	"github.com/joseph-ayodele/mediscan/internal/entity"
)

type ExtractRequest struct {
	ImagePath string
	// MimeType overrides the type guessed from ImagePath's extension.
	MimeType string
}

// RecordExtractor is the interface the pipeline depends on.
type RecordExtractor interface {
	ExtractRecord(ctx context.Context, req ExtractRequest) (entity.PrescriptionRecord, []byte /*rawJSON*/, error)
}
