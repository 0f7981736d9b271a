package productdb

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
)

// rankedColumns is the tie-break priority for search results. A product falls
// into the bucket of the first column containing the term; bucket 6 collects
// everything else.
var rankedColumns = []string{"name", "brand", "category", "sku", "description"}

const lowestRank = 6

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns term into a LIKE pattern that matches it as a literal
// substring.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func containsCondition(column string) string {
	return fmt.Sprintf(`LOWER(%s) LIKE LOWER(?) ESCAPE '\'`, column)
}

func matchCondition() string {
	conditions := make([]string, 0, len(searchableColumns))
	for _, column := range searchableColumns {
		conditions = append(conditions, containsCondition(column))
	}

	return strings.Join(conditions, " OR ")
}

func rankExpression() string {
	var b strings.Builder
	b.WriteString("CASE")
	for i, column := range rankedColumns {
		fmt.Fprintf(&b, " WHEN %s THEN %d", containsCondition(column), i+1)
	}
	fmt.Fprintf(&b, " ELSE %d END", lowestRank)

	return b.String()
}

func repeatArg(arg any, n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = arg
	}

	return args
}

// Search returns the products containing term, case-insensitively, in any
// searchable column. Results are ordered by rank bucket, then name, then id.
// A blank term lists the whole catalog.
func (g *GormDB) Search(ctx context.Context, term string) ([]Product, error) {
	if strings.TrimSpace(term) == "" {
		return g.GetAll(ctx)
	}

	pattern := likePattern(term)
	products := []Product{}
	err := g.conn(ctx).
		Where(matchCondition(), repeatArg(pattern, len(searchableColumns))...).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{
				SQL:                rankExpression() + ", name ASC, id ASC",
				Vars:               repeatArg(pattern, len(rankedColumns)),
				WithoutParentheses: true,
			},
		}).
		Find(&products).Error
	if err != nil {
		g.logger.Error("failed to search products", "err", err.Error())
		return nil, &UnavailableError{Op: "search", Err: err}
	}

	return products, nil
}
