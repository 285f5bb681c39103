package server

import (
	"github.com/OFFIS-RIT/citegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/citegraph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	apiRoutes.GET("/fetch-article", routes.FetchArticleHandler)

	// Audit routes
	apiRoutes.POST("/audits", routes.CreateAuditHandler)
	apiRoutes.POST("/audits/queue", routes.QueueAuditHandler)
	apiRoutes.GET("/audits", routes.ListAuditsHandler)
	apiRoutes.GET("/audits/:id", routes.GetAuditHandler)
	apiRoutes.GET("/audits/:id/report", routes.GetAuditReportHandler)
}
