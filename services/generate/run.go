package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/meghashyamc/catalog/db/kvdb"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"

	maxRunHistory = 100
)

var ErrRunNotFound = errors.New("generation run not found")

// Run is the persisted record of one generation request.
type Run struct {
	RequestID  string     `json:"request_id"`
	Requested  int        `json:"requested"`
	Inserted   int        `json:"inserted"`
	Skipped    int        `json:"skipped"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// RunStore is the key-value storage generation runs are kept in.
type RunStore interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
}

func (s *Service) saveRun(run Run) {
	data, err := json.Marshal(run)
	if err != nil {
		s.logger.Error("failed to marshal generation run", "request_id", run.RequestID, "err", err.Error())
		return
	}

	if err := s.runs.Set(kvdb.GenerationsBucket, run.RequestID, string(data)); err != nil {
		s.logger.Warn("failed to save generation run", "request_id", run.RequestID, "err", err.Error())
	}
}

func (s *Service) GetRun(requestID string) (Run, error) {
	value, err := s.runs.Get(kvdb.GenerationsBucket, requestID)
	if err != nil {
		if errors.Is(err, kvdb.ErrNotFound) || errors.Is(err, kvdb.ErrInvalidKey) {
			return Run{}, ErrRunNotFound
		}
		return Run{}, fmt.Errorf("failed to get generation run: %w", err)
	}

	run := Run{}
	if err := json.Unmarshal([]byte(value), &run); err != nil {
		return Run{}, fmt.Errorf("invalid generation run %s: %w", requestID, err)
	}

	return run, nil
}

// ListRuns returns the recorded runs, newest first.
func (s *Service) ListRuns() ([]Run, error) {
	keys, err := s.runs.GetAllKeys(kvdb.GenerationsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation runs: %w", err)
	}

	runs := make([]Run, 0, len(keys))
	for _, key := range keys {
		run, err := s.GetRun(key)
		if err != nil {
			s.logger.Warn("skipping unreadable generation run", "request_id", key, "err", err.Error())
			continue
		}
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs, nil
}

// pruneRuns keeps only the newest maxRunHistory finished runs.
func (s *Service) pruneRuns() {
	runs, err := s.ListRuns()
	if err != nil {
		s.logger.Warn("failed to prune generation runs", "err", err.Error())
		return
	}
	if len(runs) <= maxRunHistory {
		return
	}

	for _, run := range runs[maxRunHistory:] {
		if run.Status == RunStatusRunning {
			continue
		}
		if err := s.runs.Delete(kvdb.GenerationsBucket, run.RequestID); err != nil {
			s.logger.Warn("failed to delete old generation run", "request_id", run.RequestID, "err", err.Error())
		}
	}
}
