package handlers

import "github.com/alaaeddinekamel/gym-management/internal/models"

const (
	defaultPageLimit = 10
	maxPageLimit     = 50
	// maxPage keeps (page-1)*limit well inside the int range.
	maxPage = 100000
)

// buildPaginationMeta describes one page of a listing. TotalPages is zero
// when there is nothing to page through or limit is not positive.
func buildPaginationMeta(page, limit, total int) models.PaginationMeta {
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return models.PaginationMeta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
