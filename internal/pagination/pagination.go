// Package pagination applies offset/limit paging to statements and reports
// page metadata.
package pagination

import (
	"fmt"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/query"
)

// Pagination describes the page a paginated statement returns.
type Pagination struct {
	PageNumber   int `json:"page_number"`
	PageSize     int `json:"page_size"`
	NumPages     int `json:"num_pages"`
	TotalResults int `json:"total_results"`
}

// Apply limits stmt to one page of results. pageNumber starts at 1 and
// defaults to 1; pageSize defaults to totalResults and is capped by it when
// totalResults is positive. The limit uses the requested page size as given.
func Apply(stmt query.Statement, pageNumber, pageSize *int, totalResults int) (query.Statement, Pagination, error) {
	if pageSize != nil {
		if *pageSize < 0 {
			return query.Statement{}, Pagination{}, fmt.Errorf("%w: page size should not be negative: %d", core.ErrInvalidPage, *pageSize)
		}
		stmt = stmt.Limit(*pageSize)
	}

	size := totalResults
	if pageSize != nil && !(*pageSize > totalResults && totalResults > 0) {
		size = *pageSize
	}

	number := 1
	if pageNumber != nil {
		if *pageNumber < 1 {
			return query.Statement{}, Pagination{}, fmt.Errorf("%w: page number should be positive: %d", core.ErrInvalidPage, *pageNumber)
		}
		number = *pageNumber
		stmt = stmt.Offset((number - 1) * size)
	}

	return stmt, Pagination{
		PageNumber:   number,
		PageSize:     size,
		NumPages:     numPages(size, totalResults),
		TotalResults: totalResults,
	}, nil
}

func numPages(size, total int) int {
	if size == 0 {
		return 0
	}
	return (total + size - 1) / size
}
