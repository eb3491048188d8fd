package collector

import (
	"context"

	"IncomeLens/internal/model"
)

// Fetcher loads the income-statement dataset.
type Fetcher interface {
	Load(ctx context.Context) ([]model.Record, error)
	Name() string
}
