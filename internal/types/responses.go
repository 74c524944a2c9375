// Package types holds the response envelopes shared by the API handlers and the Go client
package types

// JobIDResponse is returned when a job is posted
// swagger:model
// Example: {"id":7}
type JobIDResponse struct {
	// Id allocated to the new job
	ID uint `json:"id"`
}

// CounterResponse carries the job counter
// swagger:model
// Example: {"counter":42}
type CounterResponse struct {
	// Number of jobs ever created, which is also the highest job id
	Counter uint `json:"counter"`
}

// PaginationResponse describes the id window a listing scanned
// swagger:model
// Example: {"total":3,"limit":20,"top":42,"next":23}
type PaginationResponse struct {
	// Number of rows returned
	Total int `json:"total"`

	// Size of the scanned window
	Limit int `json:"limit"`

	// Highest id in the scanned window
	Top uint `json:"top"`

	// Value to pass as "before" to scan the next window; zero when the oldest job was reached
	Next uint `json:"next"`
}

// ListResponse defines a generic response structure for listing resources
// swagger:model
// Example: {"rows":[{"id":42,"status":"open"}],"pagination":{"total":1,"limit":20,"top":42,"next":23}}
type ListResponse[T any] struct {
	// Array of resource items
	Rows []T `json:"rows"`

	// Pagination information for the result set
	Pagination PaginationResponse `json:"pagination"`
}

// ErrorResponse represents an error response outside the RPC envelope
// swagger:model
// Example: {"error":"job 9 not found","code":"not_found"}
type ErrorResponse struct {
	// Error message describing what went wrong
	Error string `json:"error"`

	// Machine readable error code
	Code string `json:"code,omitempty"`
}
