package generate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
	"github.com/meghashyamc/catalog/metrics"
)

var ErrInvalidCount = errors.New("count must not be negative")

// ProductStore is the part of the product store a generation batch needs.
type ProductStore interface {
	InsertBatch(ctx context.Context, products []productdb.Product) ([]productdb.InsertResult, error)
}

// Recorder receives the outcome of every finished batch.
type Recorder interface {
	ObserveGeneration(status string, inserted int, skipped int)
}

type Service struct {
	logger      logger.Logger
	store       ProductStore
	runs        RunStore
	recorder    Recorder
	synthesizer Synthesizer
	now         func() time.Time
}

type Result struct {
	RequestID string `json:"request_id"`
	Requested int    `json:"requested"`
	Inserted  int    `json:"inserted"`
	Skipped   int    `json:"skipped"`
}

func New(logger logger.Logger, store ProductStore, runs RunStore, recorder Recorder, synthesizer Synthesizer) *Service {
	if synthesizer == nil {
		synthesizer = NewRandomSynthesizer()
	}

	return &Service{
		logger:      logger,
		store:       store,
		runs:        runs,
		recorder:    recorder,
		synthesizer: synthesizer,
		now:         time.Now,
	}
}

// Generate synthesizes count products and inserts them as one batch. Rows
// whose sku already exists are skipped; any other failure rolls back the
// whole batch. A count of zero succeeds without touching the store.
func (s *Service) Generate(ctx context.Context, count int, requestID string) (Result, error) {
	if count < 0 {
		return Result{}, ErrInvalidCount
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	result := Result{RequestID: requestID, Requested: count}
	run := Run{
		RequestID: requestID,
		Requested: count,
		Status:    RunStatusRunning,
		StartedAt: s.now().UTC(),
	}
	s.saveRun(run)

	if count > 0 {
		products := make([]productdb.Product, count)
		for i := range products {
			products[i] = s.synthesizer.Next()
		}

		insertResults, err := s.store.InsertBatch(ctx, products)
		if err != nil {
			s.logger.Error("generation batch failed", "request_id", requestID, "count", count, "err", err.Error())
			s.finishRun(run, RunStatusFailed)
			return Result{}, fmt.Errorf("failed to generate %d products: %w", count, err)
		}

		for _, insertResult := range insertResults {
			if insertResult.Skipped() {
				result.Skipped++
				continue
			}
			result.Inserted++
		}
	}

	run.Inserted = result.Inserted
	run.Skipped = result.Skipped
	s.finishRun(run, RunStatusCompleted)

	s.logger.Info("generated products", "request_id", requestID, "requested", count, "inserted", result.Inserted, "skipped", result.Skipped)

	return result, nil
}

func (s *Service) finishRun(run Run, status string) {
	finishedAt := s.now().UTC()
	run.Status = status
	run.FinishedAt = &finishedAt
	s.saveRun(run)
	s.pruneRuns()

	if s.recorder == nil {
		return
	}
	switch status {
	case RunStatusCompleted:
		s.recorder.ObserveGeneration(metrics.StatusCompleted, run.Inserted, run.Skipped)
	default:
		s.recorder.ObserveGeneration(metrics.StatusFailed, 0, 0)
	}
}

// Message is the human-readable summary returned to API callers.
func (r Result) Message() string {
	message := fmt.Sprintf("Added %d products successfully", r.Inserted)
	if r.Skipped > 0 {
		message = fmt.Sprintf("%s (%d duplicates skipped)", message, r.Skipped)
	}

	return message
}
