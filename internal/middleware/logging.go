// Package middleware contains service middlewares for linefit.
package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/service"
)

// LoggingMiddleware logs every fit with its duration and outcome.
type LoggingMiddleware struct {
	next   service.Service
	logger *zap.SugaredLogger
}

// NewLoggingMiddleware returns a new LoggingMiddleware.
func NewLoggingMiddleware(next service.Service, logger *zap.SugaredLogger) service.Service {
	return &LoggingMiddleware{next: next, logger: logger}
}

// Logging adapts NewLoggingMiddleware to service.ApplyMiddleware.
func Logging(logger *zap.SugaredLogger) service.Middleware {
	return func(next service.Service) service.Service { return NewLoggingMiddleware(next, logger) }
}

// Analyze logs the dataset shape and the time the fit took.
func (mw *LoggingMiddleware) Analyze(ctx context.Context, ds *dataset.Dataset) (*service.Analysis, error) {
	defer func(begin time.Time) {
		mw.logger.Debugf("method Analyze took: %s", time.Since(begin))
	}(time.Now())

	a, err := mw.next.Analyze(ctx, ds)
	if err != nil {
		mw.logger.Warnw("fit failed", "dataset", datasetName(ds), "error", err)
		return nil, err
	}
	mw.logger.Infow("fit completed",
		"id", a.ID,
		"dataset", datasetName(ds),
		"samples", a.Len(),
		"skipped", ds.Skipped,
		"slope", a.Slope,
		"intercept", a.Intercept,
		"r_squared", a.RSquared,
	)
	return a, nil
}

func datasetName(ds *dataset.Dataset) string {
	if ds == nil {
		return ""
	}
	return ds.Name
}
