package handler

import (
	"net/url"

	dErrors "lostfound/pkg/domain-errors"
)

// RegisterRequest is the body for POST /items. Form posts use the field
// names of the registration page.
type RegisterRequest struct {
	Identifier string `json:"identifier"`
	Contact    string `json:"contact"`
	Message    string `json:"message"`
}

// DecodeForm implements httputil.FormDecoder.
func (r *RegisterRequest) DecodeForm(values url.Values) {
	r.Identifier = firstOf(values, "identifier", "college_id")
	r.Contact = firstOf(values, "contact", "phone_number")
	r.Message = values.Get("message")
}

// Validate implements httputil.Validatable.
func (r *RegisterRequest) Validate() error {
	if r.Identifier == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "identifier is required")
	}
	if r.Contact == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "contact is required")
	}
	return nil
}

// NotifyRequest is the body for POST /items/{identifier}/notify. An empty body is allowed.
type NotifyRequest struct {
	FinderMessage string `json:"finder_message"`
}

func (r *NotifyRequest) DecodeForm(values url.Values) {
	r.FinderMessage = values.Get("finder_message")
}

// TextCodeRequest is the body for POST /codes.
type TextCodeRequest struct {
	Text string `json:"text"`
}

func (r *TextCodeRequest) DecodeForm(values url.Values) {
	r.Text = values.Get("text")
}

func (r *TextCodeRequest) Validate() error {
	if r.Text == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "text is required")
	}
	return nil
}

func firstOf(values url.Values, keys ...string) string {
	for _, k := range keys {
		if v := values.Get(k); v != "" {
			return v
		}
	}
	return ""
}
