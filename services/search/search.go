package search

import (
	"context"
	"strings"

	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
)

// Reader is the read side of the product store.
type Reader interface {
	GetAll(ctx context.Context) ([]productdb.Product, error)
	Search(ctx context.Context, term string) ([]productdb.Product, error)
}

type Recorder interface {
	ObserveSearch(results int)
}

type Service struct {
	logger   logger.Logger
	db       Reader
	recorder Recorder
}

func New(logger logger.Logger, db Reader, recorder Recorder) *Service {
	return &Service{
		logger:   logger,
		db:       db,
		recorder: recorder,
	}
}

// ListAll returns the whole catalog sorted by name.
func (s *Service) ListAll(ctx context.Context) ([]productdb.Product, error) {
	products, err := s.db.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list products", "err", err.Error())
		return nil, err
	}

	return products, nil
}

// Search returns the products containing term in any searchable field,
// ordered by Rank and then by name. A blank term is the same as ListAll.
func (s *Service) Search(ctx context.Context, term string) ([]productdb.Product, error) {
	if strings.TrimSpace(term) == "" {
		return s.ListAll(ctx)
	}

	products, err := s.db.Search(ctx, term)
	if err != nil {
		s.logger.Error("failed to search products", "err", err.Error())
		return nil, err
	}

	s.logger.Debug("searched products", "term_length", len(term), "results", len(products))
	if s.recorder != nil {
		s.recorder.ObserveSearch(len(products))
	}

	return products, nil
}
