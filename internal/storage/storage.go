package storage

import "feeScope/internal/model"

// Sink receives computed fee reports.
type Sink interface {
	PutReports(reports []model.FeeReport) error
}
