package endpoints

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"

	"github.com/edulinkhq/chansync/pkg/config"
	"github.com/edulinkhq/chansync/pkg/events"
	"github.com/edulinkhq/chansync/pkg/server"
)

const testWebhookSecret = "test-webhook-secret"

// MockEventRouter mocks server.EventRouter
type MockEventRouter struct {
	mock.Mock
}

func (m *MockEventRouter) Route(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

// MockResyncer mocks server.Resyncer
type MockResyncer struct {
	mock.Mock
}

func (m *MockResyncer) SyncInstance(ctx context.Context, instanceID string, forceSynchronousFor *string) error {
	return m.Called(ctx, instanceID, forceSynchronousFor).Error(0)
}

func (m *MockResyncer) SyncAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockConnectionTester mocks server.ConnectionTester
type MockConnectionTester struct {
	mock.Mock
}

func (m *MockConnectionTester) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// NewTestServer creates a server wired to mocks, with all endpoints
// registered.
func NewTestServer(router server.EventRouter, resyncer server.Resyncer, tester server.ConnectionTester) *server.Server {
	cfg := &config.Config{WebhookSecret: testWebhookSecret}
	srv, err := server.NewServer(cfg, router, resyncer, tester, "127.0.0.1", "0")
	if err != nil {
		panic(err)
	}
	RegisterAll(srv)
	return srv
}

// BearerToken signs a short-lived token with the test webhook secret.
func BearerToken() string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "lms",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, _ := token.SignedString([]byte(testWebhookSecret))
	return "Bearer " + signed
}
