package routes

import (
	"github.com/eyobtef/school_admin/handlers"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
)

func ClassRoutes(app *fiber.App) {
	classes := app.Group("/api/v1/classes", middleware.Protected())

	classes.Post("/", middleware.RoleRequired(models.RoleRegistrar), handlers.CreateClass)
	classes.Get("/", handlers.ListClasses)
	classes.Get("/:id", handlers.GetClass)
}

func AttendanceRoutes(app *fiber.App) {
	attendance := app.Group("/api/v1/attendance", middleware.Protected())

	attendance.Post("/", middleware.RoleRequired(models.RoleTeacher, models.RoleRegistrar), handlers.MarkAttendance)
	attendance.Get("/", handlers.ListAttendance)
}
