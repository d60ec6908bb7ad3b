package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"site_id is required"`
}

// TrackEventResponse represents a successful event ingestion response
type TrackEventResponse struct {
	Status string `json:"status" example:"accepted"`
}

// PathViews represents the view count for a single path
type PathViews struct {
	Path  string `json:"path" example:"/pricing"`
	Views int    `json:"views" example:"42"`
}

// StatsResponse represents the per-site daily stats response
type StatsResponse struct {
	SiteID      string      `json:"site_id" example:"site_123"`
	Date        string      `json:"date" example:"2024-01-01"`
	TotalViews  int         `json:"total_views" example:"128"`
	UniqueUsers int         `json:"unique_users" example:"37"`
	TopPaths    []PathViews `json:"top_paths"`
}
