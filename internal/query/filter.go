// Package query derives filtered, searched and paginated views over a
// snapshot without ever modifying it.
package query

import (
	"math"
	"strings"

	"github.com/wonny/dietdash/internal/contracts"
)

// Page is one page of rows
type Page struct {
	Items      []contracts.Row `json:"-"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
	NoResults  bool            `json:"no_results"`
}

// FilterByDiet keeps rows whose diet equals diet, ignoring case.
// An empty diet returns rows unchanged.
func FilterByDiet(rows []contracts.Row, diet string) []contracts.Row {
	diet = strings.TrimSpace(diet)
	if diet == "" {
		return rows
	}

	out := make([]contracts.Row, 0, len(rows))
	for _, r := range rows {
		if strings.EqualFold(r.DietType, diet) {
			out = append(out, r)
		}
	}
	return out
}

// Search keeps rows whose recipe name or cuisine contains keyword, ignoring
// case. An empty keyword returns rows unchanged.
func Search(rows []contracts.Row, keyword string) []contracts.Row {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return rows
	}

	out := make([]contracts.Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.RecipeName), keyword) ||
			strings.Contains(strings.ToLower(r.CuisineType), keyword) {
			out = append(out, r)
		}
	}
	return out
}

// Paginate returns the requested page, clamping page into [1, total pages].
// Zero rows yield page 1 of 1 with NoResults set.
func Paginate(rows []contracts.Row, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = 1
	}

	total := len(rows)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	if totalPages < 1 {
		totalPages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}

	items := []contracts.Row{}
	if start < total {
		items = rows[start:end]
	}

	return Page{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		NoResults:  total == 0,
	}
}
