package routes

import (
	"github.com/eyobtef/school_admin/handlers"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/gofiber/fiber/v2"
)

// Admin-only master data: branches, grades, academic years, fee schedules.
func AdminRoutes(app *fiber.App) {
	admin := app.Group("/api/v1/admin", middleware.Protected(), middleware.RoleRequired())

	admin.Post("/branches", handlers.CreateBranch)
	admin.Get("/branches", handlers.ListBranches)
	admin.Post("/grades", handlers.CreateGrade)
	admin.Post("/academic-years", handlers.CreateAcademicYear)
	admin.Get("/academic-years", handlers.ListAcademicYears)
	admin.Post("/pricing-schemas", handlers.CreatePricingSchema)
}
