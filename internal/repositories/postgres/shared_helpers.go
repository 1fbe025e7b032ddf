package postgres

import "gorm.io/gorm"

// applyPaginationAndSort applies ordering and paging with a column whitelist
// so user input never reaches the ORDER BY clause directly.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at":    true,
		"updated_at":    true,
		"id":            true,
		"name":          true,
		"subject":       true,
		"time_to_start": true,
		"submitted_at":  true,
		"score":         true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
