package models

// UserInfo describes the authenticated admin as returned by /auth/me.
type UserInfo struct {
	FullName      string `json:"full_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	AvatarInitial string `json:"avatar_initial,omitempty"`
}

// Pagination carries list totals in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
