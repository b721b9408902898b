package main // member service: registration, login and the member listing

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/health-member-services/internal/handler"
	"github.com/iliyamo/health-member-services/internal/repository"
	"github.com/iliyamo/health-member-services/internal/router"
	"github.com/iliyamo/health-member-services/internal/server"
)

func main() {
	server.Run("members", func(e *echo.Echo, d server.Deps) {
		h := handler.NewMemberHandler(d.Env, repository.NewMemberRepo(d.Store))
		router.RegisterMembers(e, h, d.Guards)
	})
}
