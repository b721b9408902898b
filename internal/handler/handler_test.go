package handler

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliyamo/health-member-services/internal/config"
	"github.com/iliyamo/health-member-services/internal/queue"
	"github.com/iliyamo/health-member-services/internal/repository"
)

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// recordingHooks captures afterWrite side effects.
type recordingHooks struct {
	mu          sync.Mutex
	events      []queue.ActivityEvent
	invalidated []string
	publishErr  error
}

func (r *recordingHooks) Publish(_ context.Context, ev queue.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.publishErr
}

func (r *recordingHooks) InvalidateRoute(_ context.Context, route string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, route)
	return nil
}

// published waits for n background publishes and returns them.
func (r *recordingHooks) published(t *testing.T, n int) []queue.ActivityEvent {
	t.Helper()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.events) >= n
	}, 2*time.Second, 5*time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.ActivityEvent(nil), r.events...)
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	release chan struct{}
	done    chan queue.ActivityEvent
}

func (b *blockingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	<-b.release
	b.done <- ev
	return nil
}

// captureStore records the filters that reach FindOne.
type captureStore struct {
	*repository.MemoryStore
	mu      sync.Mutex
	filters []bson.M
}

func (s *captureStore) FindOne(ctx context.Context, collection string, filter bson.M, out any) (bool, error) {
	s.mu.Lock()
	s.filters = append(s.filters, filter)
	s.mu.Unlock()
	return s.MemoryStore.FindOne(ctx, collection, filter, out)
}

func testEnv(mode config.StatusMode, hooks *recordingHooks) Env {
	env := Env{Status: mode}
	if hooks != nil {
		env.Events = hooks
		env.Cache = hooks
	}
	return env
}

var errStorageDown = errors.New("storage down")

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) FindAll(context.Context, string, *repository.Projection, any) error {
	return errStorageDown
}

func (failingStore) FindOne(context.Context, string, bson.M, any) (bool, error) {
	return false, errStorageDown
}

func (failingStore) InsertOne(context.Context, string, bson.M) (any, error) {
	return nil, errStorageDown
}
