package response

// ErrorResponse is the wire shape for every error the API returns.
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse is used for plain acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}
