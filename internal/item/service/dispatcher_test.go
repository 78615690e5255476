package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lostfound/internal/item/models"
	"lostfound/internal/item/service/mocks"
	dErrors "lostfound/pkg/domain-errors"
	"lostfound/pkg/platform/sentinel"
)

// =============================================================================
// Notification Dispatcher Test Suite
// =============================================================================
// Tests verify configuration checks, that unknown items never reach the
// gateway, message composition, destination addressing and error mapping.

type DispatcherSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockRegistry *mocks.MockRegistry
	mockGateway  *mocks.MockGateway
	config       GatewayConfig
	dispatcher   *Dispatcher
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockRegistry = mocks.NewMockRegistry(s.ctrl)
	s.mockGateway = mocks.NewMockGateway(s.ctrl)
	s.config = GatewayConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		From:       "whatsapp:+14155238886",
		Timeout:    time.Second,
	}
	s.dispatcher = NewDispatcher(s.mockRegistry, s.mockGateway, s.config,
		WithDispatcherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func (s *DispatcherSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DispatcherSuite) TestMisconfiguredGateway() {
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*GatewayConfig)
	}{
		{name: "missing account sid", mutate: func(c *GatewayConfig) { c.AccountSID = "" }},
		{name: "missing auth token", mutate: func(c *GatewayConfig) { c.AuthToken = "" }},
		{name: "missing sender", mutate: func(c *GatewayConfig) { c.From = "" }},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			cfg := s.config
			tc.mutate(&cfg)
			d := NewDispatcher(s.mockRegistry, s.mockGateway, cfg)

			_, err := d.Notify(ctx, "ID-1", "hi")
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeGatewayMisconfigured))
		})
	}

	s.Run("nil gateway", func() {
		d := NewDispatcher(s.mockRegistry, nil, s.config)
		_, err := d.Notify(ctx, "ID-1", "hi")
		s.True(dErrors.HasCode(err, dErrors.CodeGatewayMisconfigured))
	})

	s.Run("checked before lookup", func() {
		d := NewDispatcher(s.mockRegistry, s.mockGateway, GatewayConfig{})
		_, err := d.Notify(ctx, "does-not-exist", "")
		s.True(dErrors.HasCode(err, dErrors.CodeGatewayMisconfigured))
	})
}

func (s *DispatcherSuite) TestUnknownItemNeverReachesGateway() {
	s.mockRegistry.EXPECT().FindByIdentifier(gomock.Any(), "ghost").Return(nil, sentinel.ErrNotFound)
	s.mockGateway.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.dispatcher.Notify(context.Background(), "ghost", "found it")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *DispatcherSuite) TestNotify() {
	ctx := context.Background()
	item := &models.Item{Identifier: "BAG-1", ContactDigits: "9876543210"}

	s.Run("blank note sends the no-message line", func() {
		s.mockRegistry.EXPECT().FindByIdentifier(gomock.Any(), "BAG-1").Return(item, nil)
		s.mockGateway.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg models.OutboundMessage) (string, error) {
				s.Contains(msg.Body, "Good news! Someone found your item (BAG-1).")
				s.Contains(msg.Body, NoFinderNote)
				s.Equal("whatsapp:+919876543210", msg.To)
				s.Equal(s.config.From, msg.From)
				return "SM1", nil
			})

		result, err := s.dispatcher.Notify(ctx, "BAG-1", "  ")
		s.Require().NoError(err)
		s.Equal("SM1", result.MessageID)
		s.Equal("whatsapp:+919876543210", result.To)
	})

	s.Run("note is quoted in the body", func() {
		s.mockRegistry.EXPECT().FindByIdentifier(gomock.Any(), "BAG-1").Return(item, nil)
		s.mockGateway.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msg models.OutboundMessage) (string, error) {
				s.Contains(msg.Body, "'please call'")
				s.NotContains(msg.Body, NoFinderNote)
				return "SM2", nil
			})

		_, err := s.dispatcher.Notify(ctx, "BAG-1", " please call ")
		s.Require().NoError(err)
	})

	s.Run("send runs under a deadline", func() {
		s.mockRegistry.EXPECT().FindByIdentifier(gomock.Any(), "BAG-1").Return(item, nil)
		s.mockGateway.EXPECT().Send(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ models.OutboundMessage) (string, error) {
				deadline, ok := ctx.Deadline()
				s.True(ok)
				s.WithinDuration(time.Now().Add(s.config.Timeout), deadline, s.config.Timeout)
				return "SM3", nil
			})

		_, err := s.dispatcher.Notify(ctx, "BAG-1", "")
		s.Require().NoError(err)
	})
}

func (s *DispatcherSuite) TestDeliveryFailure() {
	item := &models.Item{Identifier: "BAG-2", ContactDigits: "12"}
	s.mockRegistry.EXPECT().FindByIdentifier(gomock.Any(), "BAG-2").Return(item, nil)
	s.mockGateway.EXPECT().Send(gomock.Any(), gomock.Any()).Return("", errors.New("invalid 'To' number"))

	_, err := s.dispatcher.Notify(context.Background(), "BAG-2", "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDeliveryFailed))

	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Contains(de.Message, "invalid 'To' number")
}

func (s *DispatcherSuite) TestRegistryFailure() {
	s.mockRegistry.EXPECT().FindByIdentifier(gomock.Any(), "BAG-3").Return(nil, errors.New("db down"))
	s.mockGateway.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.dispatcher.Notify(context.Background(), "BAG-3", "")
	s.True(dErrors.HasCode(err, dErrors.CodePersistence))
}

func TestComposeBody(t *testing.T) {
	assert.Equal(t,
		"Good news! Someone found your item (X1).\n\n(The finder did not leave a message).",
		ComposeBody("X1", ""))
	assert.Equal(t,
		"Good news! Someone found your item (X1).\n\nThey left this message:\n'at the front desk'",
		ComposeBody("X1", "at the front desk\n"))
}

func TestNewDispatcherDefaultsTimeout(t *testing.T) {
	d := NewDispatcher(nil, nil, GatewayConfig{})
	assert.Equal(t, DefaultGatewayTimeout, d.config.Timeout)
}
