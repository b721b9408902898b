package handler

import (
	"context"
	"errors"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/health-member-services/internal/model"
	"github.com/iliyamo/health-member-services/internal/queue"
	"github.com/iliyamo/health-member-services/internal/repository"
	"github.com/iliyamo/health-member-services/internal/utils"
)

// Required fields per endpoint, in the order they are reported.
var (
	memberFields = []string{"username", "password", "name", "age", "weight"}
	loginFields  = []string{"username", "password"}
)

// MemberStore is the slice of repository.MemberRepo used by MemberHandler.
type MemberStore interface {
	List(ctx context.Context) ([]bson.M, error)
	Create(ctx context.Context, doc bson.M) (any, error)
	GetByUsername(ctx context.Context, username string) (model.Member, bool, error)
}

// MemberHandler serves registration, login and the member listing.
type MemberHandler struct {
	Env
	Members MemberStore
}

func NewMemberHandler(env Env, members MemberStore) *MemberHandler {
	if members == nil {
		panic("nil member store passed to NewMemberHandler")
	}
	return &MemberHandler{Env: env, Members: members}
}

// List handles GET /members.  Documents are returned as stored, password
// digest included.
func (h *MemberHandler) List(c echo.Context) error {
	ctx, cancel := h.storageContext(c)
	defer cancel()

	members, err := h.Members.List(ctx)
	if err != nil {
		return h.internal(c, "list members", err)
	}
	return h.json(c, Success, members)
}

// Register handles POST /members.  The password is replaced by its digest
// before the body is stored; nothing is stored if hashing fails.
func (h *MemberHandler) Register(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return h.text(c, ValidationError, "Invalid request body")
	}
	if ok, missing := utils.CheckMissingFields(memberFields, body); !ok {
		return h.text(c, ValidationError, missingMessage(missing))
	}
	username, ok := body["username"].(string)
	if !ok {
		return h.text(c, ValidationError, invalidMessage("username"))
	}
	plain, ok := body["password"].(string)
	if !ok {
		return h.text(c, ValidationError, invalidMessage("password"))
	}
	digest, err := utils.HashPassword(plain)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return h.text(c, ValidationError, "Password is too long")
	}
	if err != nil {
		return h.internal(c, "hash password", err)
	}
	body["password"] = digest

	ctx, cancel := h.storageContext(c)
	defer cancel()

	id, err := h.Members.Create(ctx, bson.M(body))
	if err != nil {
		return h.internal(c, "create member", err)
	}
	h.afterWrite(c, "/members", queue.ActivityEvent{
		Type:       queue.EventMemberRegistered,
		DocumentID: repository.IDString(id),
		Username:   username,
	})
	return h.text(c, Created, "Create User Successfully")
}

// Login handles POST /login.  On success it returns the member profile
// without the digest.
func (h *MemberHandler) Login(c echo.Context) error {
	body, err := bindRecord(c)
	if err != nil {
		return h.text(c, ValidationError, "Invalid request body")
	}
	if ok, missing := utils.CheckMissingFields(loginFields, body); !ok {
		return h.text(c, ValidationError, missingMessage(missing))
	}

	// Only a plain string may reach the filter; an object would be read as
	// query operators.
	username, ok := body["username"].(string)
	if !ok {
		return h.text(c, ValidationError, invalidMessage("username"))
	}

	ctx, cancel := h.storageContext(c)
	defer cancel()

	member, found, err := h.Members.GetByUsername(ctx, username)
	if err != nil {
		return h.internal(c, "find member", err)
	}
	if !found {
		return h.text(c, NotFound, "User not found")
	}
	plain, _ := body["password"].(string)
	if !utils.VerifyPassword(member.Password, plain) {
		return h.text(c, AuthError, "Password is incorrect")
	}
	return h.json(c, Success, member.Profile())
}
