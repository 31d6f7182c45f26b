package handlers

import (
	"errors"
	"strconv"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func GetInvoice(c *fiber.Ctx) error {
	invoiceID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid invoice ID format"})
	}

	var invoice models.Invoice
	err = database.DB.Preload("Items").Preload("Student").First(&invoice, "id = ?", invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Invoice not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !middleware.CanAccessBranch(c, invoice.BranchID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cross-branch access"})
	}

	var payments []models.Payment
	err = database.DB.Where("invoice_id = ?", invoice.ID).Order("created_at").Find(&payments).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load payments"})
	}

	return c.JSON(fiber.Map{
		"invoice":     invoice,
		"payments":    payments,
		"outstanding": invoice.Outstanding(),
	})
}

func ListInvoices(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Invoice{})
	if own := middleware.ClaimBranchID(c); own != nil {
		query = query.Where("branch_id = ?", *own)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if student := c.Query("student_id"); student != "" {
		studentID, err := uuid.Parse(student)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student_id"})
		}
		query = query.Where("student_id = ?", studentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count invoices"})
	}

	var invoices []models.Invoice
	err := query.Preload("Student").Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).Find(&invoices).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list invoices"})
	}

	return c.JSON(fiber.Map{
		"invoices": invoices,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}
