// Package service runs a line fit over an ingested dataset and packages the
// outcome for presentation.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/linefit/internal/dataset"
	"github.com/KaramelBytes/linefit/internal/regression"
)

// Service is the fitting entry point shared by the CLI and the web surface.
type Service interface {
	// Analyze fits a line to the dataset's samples.
	Analyze(ctx context.Context, ds *dataset.Dataset) (*Analysis, error)
}

// Middleware describes a service middleware.
type Middleware func(Service) Service

// ApplyMiddleware applies middlewares to a service, innermost first.
func ApplyMiddleware(svc Service, mw ...Middleware) Service {
	for _, m := range mw {
		svc = m(svc)
	}
	return svc
}

// Analysis is one fit with everything a report needs. X, Y, Predictions and
// Residuals are aligned by index and keep file order.
type Analysis struct {
	ID          string                   `json:"id"`
	CreatedAt   time.Time                `json:"created_at"`
	Dataset     *dataset.Dataset         `json:"dataset"`
	Slope       float64                  `json:"slope"`
	Intercept   float64                  `json:"intercept"`
	RSquared    float64                  `json:"r_squared"`
	Equation    string                   `json:"equation"`
	Quality     regression.FitQuality    `json:"quality"`
	X           []float64                `json:"x"`
	Y           []float64                `json:"y"`
	Predictions []float64                `json:"predictions"`
	Residuals   []float64                `json:"residuals"`
	Stats       regression.ResidualStats `json:"residual_stats"`
}

// Len returns the number of fitted samples.
func (a *Analysis) Len() int { return len(a.X) }

type fitter struct {
	now func() time.Time
}

// New returns the plain fitting service.
func New() Service {
	return &fitter{now: time.Now}
}

func (f *fitter) Analyze(ctx context.Context, ds *dataset.Dataset) (*Analysis, error) {
	if ds == nil {
		return nil, &regression.InvalidInputError{Reason: "no dataset"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, err := regression.Fit(ds.Samples)
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", ds.Name, err)
	}
	return &Analysis{
		ID:          uuid.NewString(),
		CreatedAt:   f.now().UTC(),
		Dataset:     ds,
		Slope:       res.Slope,
		Intercept:   res.Intercept,
		RSquared:    res.RSquared,
		Equation:    res.Equation(),
		Quality:     regression.Quality(res.RSquared),
		X:           res.X(),
		Y:           res.Y(),
		Predictions: res.Predictions,
		Residuals:   res.Residuals(),
		Stats:       res.Stats(),
	}, nil
}
