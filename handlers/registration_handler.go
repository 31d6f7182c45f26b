package handlers

import (
	"errors"
	"strconv"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetPricing returns the fee schedule and payment-option menu for a
// branch+grade pair, the screen shown before a registration is created.
func GetPricing(c *fiber.Ctx) error {
	branchID, err := uuid.Parse(c.Query("branch_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or missing branch_id"})
	}
	gradeID, err := uuid.Parse(c.Query("grade_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or missing grade_id"})
	}
	if !middleware.CanAccessBranch(c, branchID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cross-branch access"})
	}

	quote, err := services.ResolvePricing(database.DB, branchID, gradeID)
	if err != nil {
		return apperrors.ToResponse(c, err)
	}
	return c.JSON(quote)
}

type CreateRegistrationRequest struct {
	StudentID      string  `json:"student_id" validate:"required,uuid"`
	BranchID       string  `json:"branch_id" validate:"required,uuid"`
	GradeID        string  `json:"grade_id" validate:"required,uuid"`
	AcademicYearID string  `json:"academic_year_id" validate:"required,uuid"`
	PaymentOption  string  `json:"payment_option" validate:"required"`
	DiscountAmount float64 `json:"discount_amount" validate:"min=0"`
}

func CreateRegistration(c *fiber.Ctx) error {
	var req CreateRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	branchID, _ := uuid.Parse(req.BranchID)
	if !middleware.CanAccessBranch(c, branchID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cross-branch access"})
	}

	studentID, _ := uuid.Parse(req.StudentID)
	gradeID, _ := uuid.Parse(req.GradeID)
	yearID, _ := uuid.Parse(req.AcademicYearID)

	registration, invoice, err := services.CreateRegistration(database.DB, services.CreateRegistrationInput{
		StudentID:      studentID,
		BranchID:       branchID,
		GradeID:        gradeID,
		AcademicYearID: yearID,
		PaymentOption:  req.PaymentOption,
		DiscountAmount: req.DiscountAmount,
		CreatedByID:    middleware.ClaimUserID(c),
	})
	if err != nil {
		return apperrors.ToResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"registration": registration,
		"invoice":      invoice,
	})
}

func GetRegistration(c *fiber.Ctx) error {
	registrationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid registration ID format"})
	}

	var registration models.Registration
	err = database.DB.Preload("Student").First(&registration, "id = ?", registrationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Registration not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !middleware.CanAccessBranch(c, registration.BranchID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cross-branch access"})
	}
	return c.JSON(registration)
}

func ListRegistrations(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := database.DB.Model(&models.Registration{})
	if own := middleware.ClaimBranchID(c); own != nil {
		query = query.Where("branch_id = ?", *own)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count registrations"})
	}

	var registrations []models.Registration
	err := query.Preload("Student").Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).Find(&registrations).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list registrations"})
	}

	return c.JSON(fiber.Map{
		"registrations": registrations,
		"total":         total,
		"page":          page,
		"limit":         limit,
	})
}

func CancelRegistration(c *fiber.Ctx) error {
	registrationID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid registration ID format"})
	}

	var registration models.Registration
	if err := database.DB.First(&registration, "id = ?", registrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Registration not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !middleware.CanAccessBranch(c, registration.BranchID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cross-branch access"})
	}

	if err := services.CancelRegistration(database.DB, registrationID); err != nil {
		return apperrors.ToResponse(c, err)
	}
	return c.JSON(fiber.Map{"message": "Registration cancelled", "status": models.RegistrationCancelled})
}
