package models

// Pagination describes the page window applied to a listing response.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
