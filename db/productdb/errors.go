package productdb

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrDuplicateSKU = errors.New("duplicate sku")
	ErrUnavailable  = errors.New("product store unavailable")
	ErrNotFound     = errors.New("product not found")
)

type DuplicateSKUError struct {
	SKU string
}

type UnavailableError struct {
	Op  string
	Err error
}

type NotFoundError struct {
	ID int64
}

func (e *DuplicateSKUError) Error() string {
	return fmt.Sprintf("product with sku %s already exists", e.SKU)
}

func (e *DuplicateSKUError) Is(target error) bool {
	return target == ErrDuplicateSKU
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("product store %s failed: %s", e.Op, e.Err)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// isDuplicateKey reports whether err is a unique constraint violation. Not
// every driver translates its errors, so the raw messages are checked too.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
