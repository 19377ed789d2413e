package models

// ScanRequest represents a request to scan media fetched from a URL
// Moved from transport package for shared usage
type ScanRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ErrorResponse represents an error response
// Moved from transport package for shared usage
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health endpoint payload
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
