package productdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meghashyamc/catalog/config"
	"github.com/meghashyamc/catalog/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	sqliteBusyTimeoutMillis = 5000
)

// searchableColumns carry a LOWER(col) expression index each.
var searchableColumns = []string{"name", "description", "category", "brand", "sku"}

type GormDB struct {
	db     *gorm.DB
	driver string
	logger logger.Logger
}

func New(logger logger.Logger, cfg *config.Config) (*GormDB, error) {
	return Open(logger, cfg.GetDBDriver(), cfg.GetDBDSN())
}

// Open connects to the product database and brings the schema up to date.
func Open(logger logger.Logger, driver string, dsn string) (*GormDB, error) {
	dialector, err := buildDialector(logger, driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logger.Error("failed to open product database", "err", err.Error(), "driver", driver)
		return nil, fmt.Errorf("failed to open product database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows one writer at a time.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	gormDB := &GormDB{
		db:     db,
		driver: driver,
		logger: logger,
	}

	if err := gormDB.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return gormDB, nil
}

func buildDialector(logger logger.Logger, driver string, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		if len(dsn) == 0 {
			return nil, errors.New("sqlite database path cannot be empty")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			logger.Error("failed to create product database directory", "err", err.Error(), "path", dsn)
			return nil, fmt.Errorf("failed to create product database directory: %w", err)
		}
		if !strings.Contains(dsn, "?") {
			dsn = fmt.Sprintf("%s?_busy_timeout=%d", dsn, sqliteBusyTimeoutMillis)
		}
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		if len(dsn) == 0 {
			return nil, errors.New("postgres dsn cannot be empty")
		}
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres)", driver)
	}
}

// sqliteSchema declares id AUTOINCREMENT so SQLite never hands out an id
// again after a delete; AutoMigrate only emits a plain rowid alias.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT,
		brand TEXT,
		price NUMERIC(12,2) NOT NULL CONSTRAINT chk_products_price CHECK (price >= 0),
		stock_quantity INTEGER NOT NULL CONSTRAINT chk_products_stock_quantity CHECK (stock_quantity >= 0),
		sku TEXT NOT NULL
	)`,
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku ON products (sku)",
}

func (g *GormDB) migrate() error {
	if g.driver == DriverSQLite {
		for _, statement := range sqliteSchema {
			if err := g.db.Exec(statement).Error; err != nil {
				g.logger.Error("failed to create products table", "err", err.Error())
				return fmt.Errorf("failed to create products table: %w", err)
			}
		}
	} else if err := g.db.AutoMigrate(&Product{}); err != nil {
		g.logger.Error("failed to migrate products table", "err", err.Error())
		return fmt.Errorf("failed to migrate products table: %w", err)
	}

	for _, column := range searchableColumns {
		statement := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_products_%s_lower ON products (LOWER(%s))", column, column)
		if err := g.db.Exec(statement).Error; err != nil {
			g.logger.Error("failed to create case-insensitive index", "err", err.Error(), "column", column)
			return fmt.Errorf("failed to create index on %s: %w", column, err)
		}
	}

	return nil
}

// conn detaches ctx from its cancellation: once a statement starts it runs to
// completion even if the caller stops waiting.
func (g *GormDB) conn(ctx context.Context) *gorm.DB {
	return g.db.WithContext(context.WithoutCancel(ctx))
}

func (g *GormDB) Insert(ctx context.Context, product Product) (int64, error) {
	product.ID = 0
	if err := g.conn(ctx).Create(&product).Error; err != nil {
		if isDuplicateKey(err) {
			g.logger.Debug("rejected duplicate sku", "sku", product.SKU)
			return 0, &DuplicateSKUError{SKU: product.SKU}
		}
		g.logger.Error("failed to insert product", "err", err.Error(), "sku", product.SKU)
		return 0, &UnavailableError{Op: "insert", Err: err}
	}

	return product.ID, nil
}

// InsertBatch writes all products in one transaction. A row whose sku already
// exists is skipped and reported in its InsertResult; any other failure rolls
// back every row of the batch.
func (g *GormDB) InsertBatch(ctx context.Context, products []Product) ([]InsertResult, error) {
	results := make([]InsertResult, 0, len(products))
	if len(products) == 0 {
		return results, nil
	}

	err := g.conn(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range products {
			row := products[i]
			row.ID = 0

			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "sku"}},
				DoNothing: true,
			}).Create(&row)
			if res.Error != nil {
				return fmt.Errorf("row %d (sku %s): %w", i, row.SKU, res.Error)
			}

			if res.RowsAffected == 0 {
				results = append(results, InsertResult{SKU: row.SKU, Err: &DuplicateSKUError{SKU: row.SKU}})
				continue
			}
			results = append(results, InsertResult{ID: row.ID, SKU: row.SKU})
		}
		return nil
	})
	if err != nil {
		g.logger.Error("batch insert rolled back", "err", err.Error(), "size", len(products))
		return nil, &UnavailableError{Op: "insert batch", Err: err}
	}

	return results, nil
}

func (g *GormDB) GetAll(ctx context.Context) ([]Product, error) {
	products := []Product{}
	if err := g.conn(ctx).Order("name ASC").Order("id ASC").Find(&products).Error; err != nil {
		g.logger.Error("failed to list products", "err", err.Error())
		return nil, &UnavailableError{Op: "list", Err: err}
	}

	return products, nil
}

func (g *GormDB) GetByID(ctx context.Context, id int64) (Product, error) {
	product := Product{}
	if err := g.conn(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Product{}, &NotFoundError{ID: id}
		}
		g.logger.Error("failed to get product", "err", err.Error(), "id", id)
		return Product{}, &UnavailableError{Op: "get", Err: err}
	}

	return product, nil
}

func (g *GormDB) DeleteByID(ctx context.Context, id int64) (int64, error) {
	res := g.conn(ctx).Delete(&Product{}, id)
	if res.Error != nil {
		g.logger.Error("failed to delete product", "err", res.Error.Error(), "id", id)
		return 0, &UnavailableError{Op: "delete", Err: res.Error}
	}

	return res.RowsAffected, nil
}

func (g *GormDB) DeleteAll(ctx context.Context) (int64, error) {
	res := g.conn(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Product{})
	if res.Error != nil {
		g.logger.Error("failed to delete all products", "err", res.Error.Error())
		return 0, &UnavailableError{Op: "delete all", Err: res.Error}
	}

	return res.RowsAffected, nil
}

func (g *GormDB) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := g.conn(ctx).Model(&Product{}).Count(&count).Error; err != nil {
		g.logger.Error("failed to count products", "err", err.Error())
		return 0, &UnavailableError{Op: "count", Err: err}
	}

	return count, nil
}

func (g *GormDB) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
