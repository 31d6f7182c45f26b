package routes

import (
	"github.com/eyobtef/school_admin/handlers"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
)

func RegistrationRoutes(app *fiber.App) {
	api := app.Group("/api/v1", middleware.Protected())

	api.Get("/pricing", handlers.GetPricing)

	registrations := api.Group("/registrations")
	registrations.Post("/", middleware.RoleRequired(models.RoleRegistrar), handlers.CreateRegistration)
	registrations.Get("/", handlers.ListRegistrations)
	registrations.Get("/:id", handlers.GetRegistration)
	registrations.Post("/:id/cancel", middleware.RoleRequired(models.RoleRegistrar), handlers.CancelRegistration)

	invoices := api.Group("/invoices")
	invoices.Get("/", handlers.ListInvoices)
	invoices.Get("/:id", handlers.GetInvoice)

	enrollments := api.Group("/enrollments")
	enrollments.Post("/", middleware.RoleRequired(models.RoleRegistrar), handlers.EnrollStudent)
	enrollments.Get("/", handlers.ListEnrollments)
}
