package models

// Page is a server-delimited slice of a collection as reported by the
// upstream API. Total and Pages are authoritative for server pagination.
type Page[T any] struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
	Items []T `json:"items"`
}

// Pagination builds the response pagination block for the page.
func (p Page[T]) Pagination() *Pagination {
	return &Pagination{
		Page:       p.Page,
		PageSize:   p.Size,
		TotalCount: p.Total,
		TotalPages: p.Pages,
	}
}
