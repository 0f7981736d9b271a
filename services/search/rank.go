package search

import (
	"strings"

	"github.com/meghashyamc/catalog/db/productdb"
)

const (
	RankName = iota + 1
	RankBrand
	RankCategory
	RankSKU
	RankDescription
	RankOther
)

// Rank is the bucket a matching product sorts into: the first of name, brand,
// category, sku and description that contains term, case-insensitively.
//
// Case folding is ASCII-only, the same as SQLite's LOWER: "É" and "é" are
// different letters here. Postgres folds the full Unicode range, so for
// non-ASCII terms Rank agrees with the sqlite store only.
func Rank(product productdb.Product, term string) int {
	needle := foldASCII(term)
	fields := []string{product.Name, product.Brand, product.Category, product.SKU, product.Description}
	for i, field := range fields {
		if strings.Contains(foldASCII(field), needle) {
			return RankName + i
		}
	}

	return RankOther
}

func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// Matches reports whether term occurs case-insensitively in any searchable field.
func Matches(product productdb.Product, term string) bool {
	return Rank(product, term) != RankOther
}

// Page returns the 1-based page of products. perPage of zero means no paging.
func Page(products []productdb.Product, page int, perPage int) []productdb.Product {
	if perPage <= 0 {
		return products
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	if start >= len(products) {
		return []productdb.Product{}
	}

	end := start + perPage
	if end > len(products) {
		end = len(products)
	}

	return products[start:end]
}
