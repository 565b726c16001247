package extraction

import (
	"context"

	"github.com/joseph-ayodele/lab-report-tracker/internal/entity"
)

// ReportExtractor is the interface the processing pipeline depends on.
type ReportExtractor interface {
	Extract(ctx context.Context, filePath string) (*entity.LabReport, error)
}
