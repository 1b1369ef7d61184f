package postgres

import (
	"gorm.io/gorm"
)

// allowedSortColumns whitelists sortable columns so user-supplied
// sort parameters never reach the SQL string directly.
var allowedSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"position":   true,
	"xp":         true,
}

// applyPaginationAndSort applies safe ordering and paging to a query.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return query.Limit(limit).Offset(offset)
}
