package handler

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lostfound/internal/item/models"
	"lostfound/internal/item/service"
	"lostfound/internal/item/service/mocks"
	"lostfound/internal/item/store"
	"lostfound/internal/qrcode"
	"lostfound/pkg/testutil"
)

const baseURL = "https://found.example.com"

// =============================================================================
// Item Handler Test Suite
// =============================================================================
// Handlers run against the real services over an in-memory store; only the
// messaging gateway is mocked.

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	gateway *mocks.MockGateway
	store   *store.InMemory
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.store = store.NewInMemory()
	s.router = s.newRouter(service.GatewayConfig{AccountSID: "AC1", AuthToken: "tok", From: "whatsapp:+14155238886"})
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) newRouter(cfg service.GatewayConfig) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(s.store)
	dispatcher := service.NewDispatcher(s.store, s.gateway, cfg)
	h := New(svc, dispatcher, qrcode.New(qrcode.WithSize(128)), baseURL, logger)

	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (s *HandlerSuite) register(identifier, contact, message string) {
	_, err := s.store.Upsert(context.Background(), identifier, contact, message)
	s.Require().NoError(err)
}

func (s *HandlerSuite) TestRegister() {
	s.Run("json body", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/items", map[string]string{
			"identifier": "BAG-1",
			"contact":    "+91 98765-43210",
			"message":    "Reward!",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[RegisterResponse](s.T(), rr)
		s.Equal("BAG-1", resp.Identifier)
		s.Equal(baseURL+"/items/BAG-1", resp.LookupURL)
		s.Equal(baseURL+"/items/BAG-1/code.png", resp.CodeURL)

		item, err := s.store.FindByIdentifier(context.Background(), "BAG-1")
		s.Require().NoError(err)
		s.Equal("919876543210", item.ContactDigits)
		s.Equal("Reward!", item.Message)
	})

	s.Run("form body with page field names", func() {
		req := testutil.NewFormRequest(s.T(), http.MethodPost, "/items", url.Values{
			"college_id":   {"STU-42"},
			"phone_number": {"98765 43210"},
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		item, err := s.store.FindByIdentifier(context.Background(), "STU-42")
		s.Require().NoError(err)
		s.Equal(models.DefaultMessage("STU-42"), item.Message)
	})

	s.Run("missing contact", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/items", map[string]string{"identifier": "X"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("contact without digits", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/items", map[string]string{"identifier": "X", "contact": "n/a"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})

	s.Run("malformed json", func() {
		req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/items", "{")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestResolve() {
	s.register("KEYS", "9876543210", "Please return")

	s.Run("known item exposes identifier and message only", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/items/KEYS"))
		testutil.AssertStatusOK(s.T(), rr)

		body := string(testutil.ReadBody(s.T(), rr))
		s.Contains(body, `"identifier":"KEYS"`)
		s.Contains(body, `"message":"Please return"`)
		s.NotContains(body, "9876543210")
	})

	s.Run("unknown item", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/items/nope"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("escaped identifier", func() {
		s.register("a/b", "1", "slash")
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/items/a%2Fb"))
		testutil.AssertStatusOK(s.T(), rr)
		s.Equal("a/b", testutil.UnmarshalResponse[ResolveResponse](s.T(), rr).Identifier)
	})
}

func (s *HandlerSuite) TestNotify() {
	s.register("WALLET", "9876543210", "m")

	s.Run("sends and reports message id", func() {
		s.gateway.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg models.OutboundMessage) (string, error) {
				s.Equal("whatsapp:+919876543210", msg.To)
				s.Contains(msg.Body, "'left at reception'")
				return "SM42", nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/items/WALLET/notify", map[string]string{
			"finder_message": "left at reception",
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[NotifyResponse](s.T(), rr)
		s.Equal(NotifySuccessMessage, resp.Message)
		s.Equal("SM42", resp.MessageID)
	})

	s.Run("empty body sends the no-message line", func() {
		s.gateway.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg models.OutboundMessage) (string, error) {
				s.Contains(msg.Body, service.NoFinderNote)
				return "SM43", nil
			})

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/items/WALLET/notify"))
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("form body", func() {
		s.gateway.EXPECT().Send(gomock.Any(), gomock.Any()).Return("SM44", nil)

		req := testutil.NewFormRequest(s.T(), http.MethodPost, "/items/WALLET/notify", url.Values{"finder_message": {"hi"}})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("unknown item never reaches gateway", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/items/ghost/notify"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("provider failure", func() {
		s.gateway.EXPECT().Send(gomock.Any(), gomock.Any()).Return("", errors.New("unreachable number"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/items/WALLET/notify"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadGateway)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal("delivery_failed", body["error"])
		s.Contains(body["error_description"], "unreachable number")
	})

	s.Run("gateway not configured", func() {
		router := s.newRouter(service.GatewayConfig{})
		rr := testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodPost, "/items/WALLET/notify"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "gateway_misconfigured")
	})
}

func (s *HandlerSuite) TestItemCode() {
	s.register("BIKE", "1234567890", "m")

	s.Run("renders captioned png", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/items/BIKE/code.png"))
		testutil.AssertPNG(s.T(), rr)

		img, err := png.Decode(bytes.NewReader(rr.Body.Bytes()))
		s.Require().NoError(err)
		s.Greater(img.Bounds().Dy(), img.Bounds().Dx(), "caption band is below the code")
	})

	s.Run("unknown item", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/items/none/code.png"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestTextCode() {
	s.Run("renders png", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/codes", map[string]string{"text": "hello"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertPNG(s.T(), rr)
	})

	s.Run("empty text", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/codes", map[string]string{"text": "  "})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestLookupURLEscapesIdentifier(t *testing.T) {
	h := New(nil, nil, nil, baseURL, slog.New(slog.DiscardHandler))
	assert.Equal(t, baseURL+"/items/a%2Fb%20c", h.LookupURL("a/b c"))
}

func TestRequestValidation(t *testing.T) {
	t.Run("register form falls back to page field names", func(t *testing.T) {
		var r RegisterRequest
		r.DecodeForm(url.Values{"college_id": {"C1"}, "phone_number": {"123"}, "message": {"m"}})
		require.NoError(t, r.Validate())
		assert.Equal(t, "C1", r.Identifier)
		assert.Equal(t, "123", r.Contact)
	})

	t.Run("register requires identifier", func(t *testing.T) {
		r := RegisterRequest{Contact: "1"}
		assert.Error(t, r.Validate())
	})
}
