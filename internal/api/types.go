package api

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SubmitTaskResponse carries the id of a freshly created background task.
type SubmitTaskResponse struct {
	TaskID string `json:"taskId"`
}
