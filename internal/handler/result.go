package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/health-member-services/internal/config"
	"github.com/iliyamo/health-member-services/internal/queue"
)

// Kind classifies the outcome of a request.
type Kind int

const (
	Success Kind = iota
	Created
	ValidationError
	AuthError
	NotFound
	InternalError
)

// Status returns the HTTP status for k under mode.  Legacy mode answers every
// handled outcome with 200 and keeps 500 for faults.
func (k Kind) Status(mode config.StatusMode) int {
	if k == InternalError {
		return http.StatusInternalServerError
	}
	if mode == config.StatusLegacy {
		return http.StatusOK
	}
	switch k {
	case Created:
		return http.StatusCreated
	case ValidationError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	}
	return http.StatusOK
}

// EventPublisher delivers activity events.  Failures are logged by the caller
// and never change the response.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// CacheInvalidator drops cached GET responses for a route after a write.
type CacheInvalidator interface {
	InvalidateRoute(ctx context.Context, route string) error
}

// Env carries what every handler shares: the status policy, the storage
// deadline and the optional cache/event hooks.  Nil hooks are skipped.
type Env struct {
	Status  config.StatusMode
	Timeout time.Duration
	Events  EventPublisher
	Cache   CacheInvalidator
}

// text writes a plain-text body with the status for k.
func (e Env) text(c echo.Context, k Kind, msg string) error {
	return c.String(k.Status(e.Status), msg)
}

// json writes v as JSON with the status for k.
func (e Env) json(c echo.Context, k Kind, v any) error {
	return c.JSON(k.Status(e.Status), v)
}

// internal logs err and answers with an opaque 500.
func (e Env) internal(c echo.Context, what string, err error) error {
	c.Logger().Errorf("%s %s: %s: %v", c.Request().Method, c.Path(), what, err)
	return e.text(c, InternalError, http.StatusText(http.StatusInternalServerError))
}

// storageContext bounds a single storage call.
func (e Env) storageContext(c echo.Context) (context.Context, context.CancelFunc) {
	if e.Timeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), e.Timeout)
}

// publishTimeout bounds one background publish.
const publishTimeout = 5 * time.Second

// afterWrite invalidates cached listings of route before the response is
// written, then publishes ev in the background so a slow or absent broker
// never delays the caller.  Both are best effort.
func (e Env) afterWrite(c echo.Context, route string, ev queue.ActivityEvent) {
	logger := c.Logger()
	if e.Cache != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		err := e.Cache.InvalidateRoute(ctx, route)
		cancel()
		if err != nil {
			logger.Warnf("cache: invalidate %s: %v", route, err)
		}
	}
	if e.Events == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	base := context.WithoutCancel(c.Request().Context())
	go func() {
		ctx, cancel := context.WithTimeout(base, publishTimeout)
		defer cancel()
		if err := e.Events.Publish(ctx, ev); err != nil {
			logger.Warnf("events: publish %s: %v", ev.Type, err)
		}
	}()
}

var errInvalidBody = errors.New("invalid request body")

// bindRecord decodes the request body into a generic record.  An empty body
// or a JSON null yields an empty record so that the field check reports every
// required field; anything other than a JSON object is rejected.
func bindRecord(c echo.Context) (map[string]any, error) {
	var record map[string]any
	dec := json.NewDecoder(c.Request().Body)
	if err := dec.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, errInvalidBody
	}
	if dec.More() {
		return nil, errInvalidBody
	}
	if record == nil {
		record = map[string]any{}
	}
	return record, nil
}

// missingMessage renders the validation message for missing fields.
func missingMessage(missing []string) string {
	return "Missing Fields: " + strings.Join(missing, ",")
}

// invalidMessage renders the validation message for fields that are present
// but unusable.
func invalidMessage(fields ...string) string {
	return "Invalid Fields: " + strings.Join(fields, ",")
}
