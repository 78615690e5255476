package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"lostfound/internal/item/models"
	"lostfound/internal/qrcode"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/platform/httputil"
	"lostfound/pkg/requestcontext"
)

// Service defines the registration and lookup operations.
type Service interface {
	Register(ctx context.Context, identifier, rawContact, customMessage string) (string, error)
	Resolve(ctx context.Context, identifier string) (*models.Item, error)
}

// Notifier sends the found-item message to an owner.
type Notifier interface {
	Notify(ctx context.Context, identifier, finderNote string) (*models.DispatchResult, error)
}

// Encoder renders a payload as a PNG code.
type Encoder interface {
	PNG(payload, caption string) ([]byte, error)
}

// Handler wires item endpoints to the item services.
type Handler struct {
	service  Service
	notifier Notifier
	encoder  Encoder
	baseURL  string
	logger   *slog.Logger
}

// New constructs an item handler. baseURL is the public origin used in lookup
// URLs, without a trailing slash.
func New(service Service, notifier Notifier, encoder Encoder, baseURL string, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		notifier: notifier,
		encoder:  encoder,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// Register mounts item endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/items", h.HandleRegister)
	r.Get("/items/{identifier}", h.HandleResolve)
	r.Post("/items/{identifier}/notify", h.HandleNotify)
	r.Get("/items/{identifier}/code.png", h.HandleItemCode)
	r.Post("/codes", h.HandleTextCode)
}

// HandleRegister handles POST /items.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	token, err := h.service.Register(ctx, req.Identifier, req.Contact, req.Message)
	if err != nil {
		h.logger.WarnContext(ctx, "item registration failed",
			"request_id", requestID,
			"identifier", req.Identifier,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Identifier: token,
		LookupURL:  h.LookupURL(token),
		CodeURL:    h.LookupURL(token) + "/code.png",
	})
}

// HandleResolve handles GET /items/{identifier}. Contact digits are never exposed.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifier := identifierParam(r)

	item, err := h.service.Resolve(ctx, identifier)
	if err != nil {
		h.logResolveFailure(ctx, identifier, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, ResolveResponse{
		Identifier: item.Identifier,
		Message:    item.Message,
	})
}

// HandleNotify handles POST /items/{identifier}/notify.
func (h *Handler) HandleNotify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	identifier := identifierParam(r)

	req, ok := httputil.DecodeAndPrepare[NotifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.notifier.Notify(ctx, identifier, req.FinderMessage)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, NotifyResponse{
		Message:   NotifySuccessMessage,
		MessageID: result.MessageID,
	})
}

// HandleItemCode handles GET /items/{identifier}/code.png.
func (h *Handler) HandleItemCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identifier := identifierParam(r)

	item, err := h.service.Resolve(ctx, identifier)
	if err != nil {
		h.logResolveFailure(ctx, identifier, err)
		httputil.WriteError(w, err)
		return
	}

	png, err := h.encoder.PNG(h.LookupURL(item.Identifier), item.Identifier)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to render item code",
			"request_id", requestcontext.RequestID(ctx),
			"identifier", item.Identifier,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render code"))
		return
	}
	writePNG(w, png)
}

// HandleTextCode handles POST /codes.
func (h *Handler) HandleTextCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TextCodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	png, err := h.encoder.PNG(req.Text, "")
	if err != nil {
		h.logger.WarnContext(ctx, "failed to render text code",
			"request_id", requestID,
			"error", err,
		)
		if errors.Is(err, qrcode.ErrEmptyPayload) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "text is required"))
			return
		}
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "text cannot be encoded"))
		return
	}
	writePNG(w, png)
}

// LookupURL is the public URL a finder opens for identifier.
func (h *Handler) LookupURL(identifier string) string {
	return h.baseURL + "/items/" + url.PathEscape(identifier)
}

func (h *Handler) logResolveFailure(ctx context.Context, identifier string, err error) {
	level := slog.LevelError
	if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeInvalidInput) {
		level = slog.LevelInfo
	}
	h.logger.Log(ctx, level, "item lookup failed",
		"request_id", requestcontext.RequestID(ctx),
		"identifier", identifier,
		"error", err,
	)
}

// identifierParam returns the decoded {identifier} path segment. chi matches
// against RawPath when the request carried escapes it had to preserve.
func identifierParam(r *http.Request) string {
	raw := chi.URLParam(r, "identifier")
	if r.URL.RawPath == "" {
		return raw
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
