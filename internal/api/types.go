package api

// ErrorResponse is the error body returned by the backend.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// UnreadCountResponse is the response from GET /notifications/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}
