package handler

// NotifySuccessMessage is returned to the finder after the owner was messaged.
const NotifySuccessMessage = "Message sent successfully! The owner has been notified."

// RegisterResponse is returned by POST /items.
type RegisterResponse struct {
	Identifier string `json:"identifier"`
	LookupURL  string `json:"lookup_url"`
	CodeURL    string `json:"code_url"`
}

// ResolveResponse is returned by GET /items/{identifier}.
type ResolveResponse struct {
	Identifier string `json:"identifier"`
	Message    string `json:"message"`
}

// NotifyResponse is returned by POST /items/{identifier}/notify.
type NotifyResponse struct {
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}
