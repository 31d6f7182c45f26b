package routes

import (
	"github.com/eyobtef/school_admin/handlers"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// The gateway posts outcomes here; no auth, correlation is by
	// transaction id and processing is idempotent.
	api.Post("/payments/webhook", handlers.HandlePaymentWebhook)

	payments := api.Group("/payments", middleware.Protected())
	payments.Post("/cash", middleware.RoleRequired(models.RoleCashier, models.RoleRegistrar), handlers.RecordCashPayment)
	payments.Post("/online", middleware.RoleRequired(models.RoleCashier, models.RoleRegistrar), handlers.InitiateOnlinePayment)
	payments.Post("/:id/confirm", middleware.RoleRequired(models.RoleCashier, models.RoleRegistrar), handlers.ConfirmPaymentAction)
	payments.Get("/", handlers.ListPayments)
}

func ExportRoutes(app *fiber.App) {
	exports := app.Group("/api/v1/exports", middleware.Protected())

	exports.Get("/registrations.csv", handlers.ExportRegistrationsCSV)
	exports.Get("/invoices.csv", handlers.ExportInvoicesCSV)
	exports.Get("/payments.csv", handlers.ExportPaymentsCSV)
}
