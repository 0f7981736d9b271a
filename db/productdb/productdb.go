package productdb

import (
	"context"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DB is the durable store for catalog products. Implementations must be safe
// for concurrent use, and every operation is atomic on its own.
type DB interface {
	Insert(ctx context.Context, product Product) (int64, error)
	InsertBatch(ctx context.Context, products []Product) ([]InsertResult, error)
	GetAll(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (Product, error)
	Search(ctx context.Context, term string) ([]Product, error)
	DeleteByID(ctx context.Context, id int64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	Close() error
}

type Product struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null;check:chk_products_price,price >= 0" json:"price"`
	StockQuantity int             `gorm:"not null;check:chk_products_stock_quantity,stock_quantity >= 0" json:"stock_quantity"`
	SKU           string          `gorm:"column:sku;not null;uniqueIndex:idx_products_sku" json:"sku"`
}

func (Product) TableName() string {
	return "products"
}

// InsertResult is the outcome of one row of a batch insert. Err is nil when the
// row was written and a *DuplicateSKUError when it was skipped.
type InsertResult struct {
	ID  int64
	SKU string
	Err error
}

func (r InsertResult) Skipped() bool {
	return r.Err != nil
}
