package main // health history service: workout ingestion and listing

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/health-member-services/internal/handler"
	"github.com/iliyamo/health-member-services/internal/repository"
	"github.com/iliyamo/health-member-services/internal/router"
	"github.com/iliyamo/health-member-services/internal/server"
)

func main() {
	server.Run("healthhistory", func(e *echo.Echo, d server.Deps) {
		h := handler.NewHealthHistoryHandler(d.Env, repository.NewHealthHistoryRepo(d.Store))
		router.RegisterHealthHistory(e, h, d.Guards)
	})
}
