package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/iliyamo/health-member-services/internal/queue"
	"github.com/iliyamo/health-member-services/internal/repository"
	"github.com/iliyamo/health-member-services/internal/utils"
)

var healthFields = []string{"duration", "distance", "average_heart_rate", "user_id"}

// HealthHistoryStore is the slice of repository.HealthHistoryRepo used by
// HealthHistoryHandler.
type HealthHistoryStore interface {
	List(ctx context.Context) ([]bson.M, error)
	Create(ctx context.Context, doc bson.M) (any, error)
}

// HealthHistoryHandler serves ingestion and listing of workout records.
type HealthHistoryHandler struct {
	Env
	Records HealthHistoryStore
}

func NewHealthHistoryHandler(env Env, records HealthHistoryStore) *HealthHistoryHandler {
	if records == nil {
		panic("nil health history store passed to NewHealthHistoryHandler")
	}
	return &HealthHistoryHandler{Env: env, Records: records}
}

// List handles GET /health.
func (h *HealthHistoryHandler) List(c echo.Context) error {
	ctx, cancel := h.storageContext(c)
	defer cancel()

	records, err := h.Records.List(ctx)
	if err != nil {
		return h.internal(c, "list health history", err)
	}
	return h.json(c, Success, records)
}

// Ingest handles POST /health.  user_id arrives as hex text and is stored as
// an ObjectID so that it matches the member's _id.
func (h *HealthHistoryHandler) Ingest(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return h.text(c, ValidationError, "Invalid request body")
	}
	if ok, missing := utils.CheckMissingFields(healthFields, body); !ok {
		return h.text(c, ValidationError, missingMessage(missing))
	}
	userID, err := repository.ToObjectID(body["user_id"])
	if err != nil {
		return h.text(c, ValidationError, invalidMessage("user_id"))
	}
	body["user_id"] = userID

	ctx, cancel := h.storageContext(c)
	defer cancel()

	id, err := h.Records.Create(ctx, bson.M(body))
	if err != nil {
		return h.internal(c, "create health record", err)
	}
	h.afterWrite(c, "/health", queue.ActivityEvent{
		Type:       queue.EventHealthRecorded,
		DocumentID: repository.IDString(id),
		UserID:     userID.Hex(),
	})
	return h.text(c, Created, "Create health data successfully")
}
