package routes

import (
	"github.com/eyobtef/school_admin/handlers"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
)

func StudentRoutes(app *fiber.App) {
	students := app.Group("/api/v1/students", middleware.Protected())

	students.Post("/", middleware.RoleRequired(models.RoleRegistrar), handlers.CreateStudent)
	students.Get("/", handlers.ListStudents)
	students.Get("/:id", handlers.GetStudent)
	students.Put("/:id", middleware.RoleRequired(models.RoleRegistrar), handlers.UpdateStudent)
}
