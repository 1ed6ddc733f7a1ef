package common

// Pagination is the metadata block attached to product and bundle listings.
// Parsing and clamping of the page/limit query parameters lives with the
// owning service, which knows its own defaults and caps.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}
