package routes

import (
	"github.com/eyobtef/school_admin/handlers"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/auth/login", handlers.LoginUser)
	api.Post("/auth/register", middleware.Protected(), middleware.RoleRequired(), handlers.RegisterStaff)
}
