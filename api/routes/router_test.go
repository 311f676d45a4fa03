package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/angelmondragon/shareit-backend/api/middleware"
	"github.com/angelmondragon/shareit-backend/internal/bookings"
	"github.com/angelmondragon/shareit-backend/pkg/config"
	"github.com/angelmondragon/shareit-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUsers struct{}

func (stubUsers) Exists(context.Context, uuid.UUID) (bool, error) {
	return true, nil
}

type stubItems map[uuid.UUID]bookings.ItemRef

func (s stubItems) Get(_ context.Context, id uuid.UUID) (bookings.ItemRef, error) {
	if item, ok := s[id]; ok {
		return item, nil
	}
	return bookings.ItemRef{}, gorm.ErrRecordNotFound
}

type memoryIdempotency struct {
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("mem:%s:%s", scope, id)
}

type routerFixture struct {
	handler   http.Handler
	store     *memoryIdempotency
	itemID    uuid.UUID
	requester uuid.UUID
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	itemID := uuid.New()
	items := stubItems{itemID: {ID: itemID, OwnerID: uuid.New(), Available: true}}

	registry := prometheus.NewRegistry()
	svc, err := bookings.NewService(bookings.ServiceParams{
		Repo:    bookings.NewMemoryRepository(items),
		Users:   stubUsers{},
		Items:   items,
		Metrics: metrics.NewBookingMetrics(registry),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	store := &memoryIdempotency{data: map[string]string{}}
	handler := NewRouter(Params{
		Config:      &config.Config{App: config.AppConfig{Env: "test"}},
		DB:          stubPinger{},
		Idempotency: store,
		Bookings:    svc,
		Gatherer:    registry,
	})
	return routerFixture{handler: handler, store: store, itemID: itemID, requester: uuid.New()}
}

func (f routerFixture) createRequest(key string) *http.Request {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	body := fmt.Sprintf(`{"itemId":%q,"start":%q,"end":%q}`, f.itemID, start.Format(time.RFC3339), start.Add(time.Hour).Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	req.Header.Set(middleware.SharerUserHeader, f.requester.String())
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestHealthRoutes(t *testing.T) {
	f := newRouterFixture(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := httptest.NewRecorder()
		f.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s expected 200 got %d", path, resp.Code)
		}
	}
}

func TestBookingsRequireCaller(t *testing.T) {
	f := newRouterFixture(t)
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/bookings", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCreateBookingIsIdempotentWithKey(t *testing.T) {
	f := newRouterFixture(t)

	first := httptest.NewRecorder()
	f.handler.ServeHTTP(first, f.createRequest("key-1"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", first.Code, first.Body.String())
	}

	replay := httptest.NewRecorder()
	f.handler.ServeHTTP(replay, f.createRequest("key-1"))
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", replay.Code)
	}
	if replay.Body.String() != first.Body.String() {
		t.Fatalf("replay body differs:\n%s\n%s", first.Body.String(), replay.Body.String())
	}
	if len(f.store.data) != 1 {
		t.Fatalf("expected one stored record, got %d", len(f.store.data))
	}

	list := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bookings?state=all", nil)
	req.Header.Set(middleware.SharerUserHeader, f.requester.String())
	f.handler.ServeHTTP(list, req)
	if strings.Count(list.Body.String(), `"status":"WAITING"`) != 1 {
		t.Fatalf("expected exactly one booking, got %s", list.Body.String())
	}
}

func TestMetricsEndpointExposesBookingSeries(t *testing.T) {
	f := newRouterFixture(t)
	f.handler.ServeHTTP(httptest.NewRecorder(), f.createRequest(""))

	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "booking_transitions_total") {
		t.Fatalf("expected booking metrics, got %s", resp.Body.String())
	}
}
