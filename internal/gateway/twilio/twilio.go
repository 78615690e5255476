// Package twilio sends owner notifications through the Twilio Messaging API.
package twilio

import (
	"context"
	"errors"
	"fmt"
	"time"

	twilio "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"lostfound/internal/item/models"
)

// DefaultTimeout is the HTTP timeout used when New is given none.
const DefaultTimeout = 10 * time.Second

// ErrMissingCredentials is returned by New when the account SID or auth token is empty.
var ErrMissingCredentials = errors.New("twilio account sid and auth token are required")

// messageCreator is the slice of the Twilio API this package calls.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// Gateway is a WhatsApp sender backed by the Twilio REST client.
type Gateway struct {
	messages messageCreator
	timeout  time.Duration
}

// New builds a gateway with the given credentials and HTTP timeout. A
// non-positive timeout falls back to DefaultTimeout; the client is never left
// without one.
func New(accountSID, authToken string, timeout time.Duration) (*Gateway, error) {
	if accountSID == "" || authToken == "" {
		return nil, ErrMissingCredentials
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.SetTimeout(timeout)
	return &Gateway{messages: client.Api, timeout: timeout}, nil
}

// Send creates one message. The Twilio client takes no context, so the call
// runs on its own goroutine and Send returns early when ctx is done. The
// abandoned request then lives until the client's HTTP timeout, which is what
// actually bounds the goroutine.
func (g *Gateway) Send(ctx context.Context, msg models.OutboundMessage) (string, error) {
	params := &openapi.CreateMessageParams{}
	params.SetFrom(msg.From)
	params.SetTo(msg.To)
	params.SetBody(msg.Body)

	type result struct {
		resp *openapi.ApiV2010Message
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := g.messages.CreateMessage(params)
		done <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("twilio send: %w", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", describe(r.err)
		}
		if r.resp == nil || r.resp.Sid == nil {
			return "", errors.New("twilio send: response carried no message sid")
		}
		return *r.resp.Sid, nil
	}
}

// describe surfaces the provider's code and message when Twilio rejected the request.
func describe(err error) error {
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) {
		return fmt.Errorf("twilio error %d: %s: %w", restErr.Code, restErr.Message, err)
	}
	return fmt.Errorf("twilio send: %w", err)
}
