package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/health-member-services/internal/model"
)

// SummaryStore is the slice of repository.HealthSummaryRepo used by
// ViewerHandler.
type SummaryStore interface {
	List(ctx context.Context) ([]model.HealthSummary, error)
}

// ViewerHandler serves the read-only heart-rate summary.
type ViewerHandler struct {
	Env
	Summaries SummaryStore
}

func NewViewerHandler(env Env, summaries SummaryStore) *ViewerHandler {
	if summaries == nil {
		panic("nil summary store passed to NewViewerHandler")
	}
	return &ViewerHandler{Env: env, Summaries: summaries}
}

// Summary handles GET / and GET /health on the viewer service.  Only _id and
// average_heart_rate leave the server.
func (h *ViewerHandler) Summary(c echo.Context) error {
	ctx, cancel := h.storageContext(c)
	defer cancel()

	items, err := h.Summaries.List(ctx)
	if err != nil {
		return h.internal(c, "list health summary", err)
	}
	return h.json(c, Success, items)
}
