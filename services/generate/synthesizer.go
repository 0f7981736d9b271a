package generate

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/shopspring/decimal"
)

var (
	categories = []string{"Electronics", "Clothing", "Books", "Home & Garden", "Sports", "Beauty", "Toys", "Automotive"}
	brands     = []string{"Apple", "Samsung", "Nike", "Adidas", "Sony", "Microsoft", "Google", "Amazon", "Tesla", "Toyota"}
	items      = []string{
		"Smartphone", "Laptop", "Headphones", "T-Shirt", "Jeans", "Sneakers", "Book", "Tablet",
		"Camera", "Watch", "Backpack", "Sunglasses", "Coffee Maker", "Blender", "Vacuum", "Chair",
	}
)

const (
	minPriceCents = 1000
	maxPriceCents = 100999
	maxStock      = 100
	skuPrefixLen  = 3
)

// Synthesizer produces candidate products. The store, not the synthesizer,
// decides whether a sku is unique.
type Synthesizer interface {
	Next() productdb.Product
}

// RandomSynthesizer draws products from fixed vocabularies. Safe for
// concurrent use.
type RandomSynthesizer struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewRandomSynthesizer() *RandomSynthesizer {
	return &RandomSynthesizer{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now: time.Now,
	}
}

func (s *RandomSynthesizer) Next() productdb.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	category := categories[s.rng.IntN(len(categories))]
	brand := brands[s.rng.IntN(len(brands))]
	item := items[s.rng.IntN(len(items))]
	priceCents := minPriceCents + s.rng.IntN(maxPriceCents-minPriceCents+1)

	return productdb.Product{
		Name:          fmt.Sprintf("%s %s", brand, item),
		Description:   fmt.Sprintf("High-quality %s from %s. Perfect for everyday use.", strings.ToLower(item), brand),
		Category:      category,
		Brand:         brand,
		Price:         decimal.New(int64(priceCents), -2),
		StockQuantity: 1 + s.rng.IntN(maxStock),
		SKU:           s.sku(brand),
	}
}

// sku is the upper-cased brand prefix, the current time in base 36 and four
// random digits.
func (s *RandomSynthesizer) sku(brand string) string {
	prefix := brand
	if len(prefix) > skuPrefixLen {
		prefix = prefix[:skuPrefixLen]
	}

	return fmt.Sprintf("%s-%s%04d",
		strings.ToUpper(prefix),
		strings.ToUpper(strconv.FormatInt(s.now().UnixNano(), 36)),
		s.rng.IntN(10000))
}
