package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/citegraph/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

func app(c echo.Context) *middleware.App {
	return c.(*middleware.AppContext).App
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func badRequest(c echo.Context, msg string) error {
	return jsonError(c, http.StatusBadRequest, msg)
}
