package main // viewer service: read-only heart-rate summary

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/health-member-services/internal/handler"
	"github.com/iliyamo/health-member-services/internal/repository"
	"github.com/iliyamo/health-member-services/internal/router"
	"github.com/iliyamo/health-member-services/internal/server"
)

func main() {
	server.Run("viewer", func(e *echo.Echo, d server.Deps) {
		h := handler.NewViewerHandler(d.Env, repository.NewHealthSummaryRepo(d.Store))
		router.RegisterViewer(e, h, d.Guards)
	})
}
