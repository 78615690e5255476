package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lostfound/internal/item/metrics"
	"lostfound/internal/item/models"
	"lostfound/internal/item/phone"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/requestcontext"
)

// DefaultGatewayTimeout bounds a single gateway send when none is configured.
const DefaultGatewayTimeout = 10 * time.Second

// NoFinderNote is appended to the notification when the finder leaves no note.
const NoFinderNote = "(The finder did not leave a message)."

// Gateway delivers one outbound message and returns the provider's message id.
type Gateway interface {
	Send(ctx context.Context, msg models.OutboundMessage) (string, error)
}

// GatewayConfig holds the provider credentials and sender address.
type GatewayConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
}

// Complete reports whether every credential and the sender are present.
func (c GatewayConfig) Complete() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// Dispatcher notifies an item's owner that the item was found.
type Dispatcher struct {
	registry Registry
	gateway  Gateway
	config   GatewayConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type DispatcherOption func(d *Dispatcher)

func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithDispatcherMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// NewDispatcher constructs a Dispatcher. A nil gateway is treated as misconfigured.
func NewDispatcher(registry Registry, gateway Gateway, cfg GatewayConfig, opts ...DispatcherOption) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGatewayTimeout
	}
	d := &Dispatcher{
		registry: registry,
		gateway:  gateway,
		config:   cfg,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer("lostfound/internal/item/service"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify sends the found-item message to the owner of identifier.
func (d *Dispatcher) Notify(ctx context.Context, identifier, finderNote string) (*models.DispatchResult, error) {
	identifier = strings.TrimSpace(identifier)
	requestID := requestcontext.RequestID(ctx)

	if d.gateway == nil || !d.config.Complete() {
		d.metrics.IncrementNotify("misconfigured")
		d.logger.ErrorContext(ctx, "messaging gateway is not configured",
			"identifier", identifier,
			"request_id", requestID,
		)
		return nil, dErrors.New(dErrors.CodeGatewayMisconfigured, "messaging service is not configured")
	}
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identifier is required")
	}

	item, err := lookup(ctx, d.registry, identifier)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			d.metrics.IncrementNotify("not_found")
			d.logger.InfoContext(ctx, "notify for unknown item",
				"identifier", identifier,
				"request_id", requestID,
			)
		}
		return nil, err
	}

	msg := models.OutboundMessage{
		From: d.config.From,
		To:   phone.Address(item.ContactDigits),
		Body: ComposeBody(item.Identifier, finderNote),
	}

	messageID, err := d.send(ctx, item.Identifier, msg)
	if err != nil {
		d.metrics.IncrementNotify("delivery_failed")
		d.logger.ErrorContext(ctx, "failed to deliver notification",
			"identifier", identifier,
			"error", err,
			"request_id", requestID,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeDeliveryFailed, "failed to send message: "+err.Error())
	}

	d.metrics.IncrementNotify("sent")
	d.logger.InfoContext(ctx, "owner notified",
		"identifier", identifier,
		"message_id", messageID,
		"request_id", requestID,
	)
	return &models.DispatchResult{MessageID: messageID, To: msg.To}, nil
}

func (d *Dispatcher) send(ctx context.Context, identifier string, msg models.OutboundMessage) (string, error) {
	ctx, span := d.tracer.Start(ctx, "gateway.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("item.identifier", identifier)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	start := time.Now()
	messageID, err := d.gateway.Send(ctx, msg)
	d.metrics.ObserveGatewayLatency(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetStatus(codes.Ok, "")
	return messageID, nil
}

// ComposeBody renders the owner notification. A blank note yields the
// NoFinderNote line; otherwise the trimmed note is quoted.
func ComposeBody(identifier, finderNote string) string {
	body := fmt.Sprintf("Good news! Someone found your item (%s).", identifier)
	note := strings.TrimSpace(finderNote)
	if note == "" {
		return body + "\n\n" + NoFinderNote
	}
	return body + "\n\nThey left this message:\n'" + note + "'"
}
