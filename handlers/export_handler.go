package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
)

// CSV exports are presentation-only views over the lifecycle records.

func ExportRegistrationsCSV(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Registration{}).Preload("Student")
	if own := middleware.ClaimBranchID(c); own != nil {
		query = query.Where("branch_id = ?", *own)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var registrations []models.Registration
	if err := query.Order("created_at").Find(&registrations).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load registrations"})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"registration_number", "student", "payment_option", "total_amount", "paid_amount", "status", "created_at"})
	for _, reg := range registrations {
		w.Write([]string{
			reg.RegistrationNumber,
			reg.Student.FullName(),
			reg.PaymentOption,
			fmt.Sprintf("%.2f", reg.TotalAmount),
			fmt.Sprintf("%.2f", reg.PaidAmount),
			reg.Status,
			reg.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV"})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="registrations.csv"`)
	return c.Send(buf.Bytes())
}

func ExportInvoicesCSV(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Invoice{}).Preload("Student")
	if own := middleware.ClaimBranchID(c); own != nil {
		query = query.Where("branch_id = ?", *own)
	}

	var invoices []models.Invoice
	if err := query.Order("created_at").Find(&invoices).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load invoices"})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"invoice_number", "student", "total_amount", "discount_amount", "final_amount", "paid_amount", "status", "due_date"})
	for _, inv := range invoices {
		w.Write([]string{
			inv.InvoiceNumber,
			inv.Student.FullName(),
			fmt.Sprintf("%.2f", inv.TotalAmount),
			fmt.Sprintf("%.2f", inv.DiscountAmount),
			fmt.Sprintf("%.2f", inv.FinalAmount),
			fmt.Sprintf("%.2f", inv.PaidAmount),
			inv.Status,
			inv.DueDate.Format("2006-01-02"),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV"})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="invoices.csv"`)
	return c.Send(buf.Bytes())
}

func ExportPaymentsCSV(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Payment{}).
		Joins("JOIN invoices ON invoices.id = payments.invoice_id")
	if own := middleware.ClaimBranchID(c); own != nil {
		query = query.Where("invoices.branch_id = ?", *own)
	}

	var payments []models.Payment
	if err := query.Order("payments.created_at").Find(&payments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payments"})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write([]string{"payment_number", "amount", "method", "status", "payment_date"})
	for _, pay := range payments {
		date := ""
		if pay.PaymentDate != nil {
			date = pay.PaymentDate.Format(time.RFC3339)
		}
		w.Write([]string{
			pay.PaymentNumber,
			fmt.Sprintf("%.2f", pay.Amount),
			pay.PaymentMethod,
			pay.Status,
			date,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to write CSV"})
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="payments.csv"`)
	return c.Send(buf.Bytes())
}
