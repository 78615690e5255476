package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"lostfound/internal/item/metrics"
	"lostfound/internal/item/models"
	"lostfound/internal/item/phone"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/platform/sentinel"
	"lostfound/pkg/requestcontext"
)

// Registry is the keyed upsert and point lookup the services depend on.
type Registry interface {
	Upsert(ctx context.Context, identifier, contactDigits, message string) (*models.Item, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.Item, error)
}

// Service registers items and resolves them for finders.
type Service struct {
	registry Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(registry Registry, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates or overwrites the record for identifier and returns the
// identifier as the reference token to encode.
func (s *Service) Register(ctx context.Context, identifier, rawContact, customMessage string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	rawContact = strings.TrimSpace(rawContact)
	if identifier == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identifier is required")
	}
	if rawContact == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "contact is required")
	}

	digits := phone.Digits(rawContact)
	if digits == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "contact must contain digits")
	}

	message := strings.TrimSpace(customMessage)
	if message == "" {
		message = models.DefaultMessage(identifier)
	}

	if _, err := s.registry.Upsert(ctx, identifier, digits, message); err != nil {
		s.logger.ErrorContext(ctx, "failed to register item",
			"identifier", identifier,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return "", dErrors.Wrap(err, dErrors.CodePersistence, "failed to save item")
	}

	s.metrics.IncrementRegistered()
	s.logger.InfoContext(ctx, "item registered",
		"identifier", identifier,
		"request_id", requestcontext.RequestID(ctx),
	)
	return identifier, nil
}

// Resolve returns the stored record for identifier.
func (s *Service) Resolve(ctx context.Context, identifier string) (*models.Item, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identifier is required")
	}
	item, err := lookup(ctx, s.registry, identifier)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.IncrementLookup("not_found")
		}
		return nil, err
	}
	s.metrics.IncrementLookup("found")
	return item, nil
}

func lookup(ctx context.Context, registry Registry, identifier string) (*models.Item, error) {
	item, err := registry.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "item not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load item")
	}
	return item, nil
}
