package models

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// ListQuery captures the generic list parameters accepted by every listing
// endpoint. Role-derived restrictions never live here; they are added by the
// query scoper.
type ListQuery struct {
	ClassID   string
	TeacherID string
	StudentID string
	Search    string
	Page      int
	PageSize  int
}
