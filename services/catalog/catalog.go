package catalog

import (
	"context"
	"errors"

	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
)

var ErrProductNotFound = errors.New("product not found")

// Store is the administrative side of the product store.
type Store interface {
	GetByID(ctx context.Context, id int64) (productdb.Product, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

type Service struct {
	logger logger.Logger
	db     Store
}

func New(logger logger.Logger, db Store) *Service {
	return &Service{
		logger: logger,
		db:     db,
	}
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.db.CountAll(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (productdb.Product, error) {
	product, err := s.db.GetByID(ctx, id)
	if errors.Is(err, productdb.ErrNotFound) {
		return productdb.Product{}, ErrProductNotFound
	}

	return product, err
}

// Delete removes one product. It returns ErrProductNotFound when no row had
// that id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.db.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrProductNotFound
	}

	s.logger.Info("deleted product", "id", id)
	return nil
}

// Clear removes every product and returns how many were deleted.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	deleted, err := s.db.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Info("cleared catalog", "deleted", deleted)
	return deleted, nil
}
