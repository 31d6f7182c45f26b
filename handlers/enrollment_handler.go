package handlers

import (
	"errors"

	"github.com/eyobtef/school_admin/apperrors"
	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/eyobtef/school_admin/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollRequest struct {
	RegistrationID string `json:"registration_id" validate:"required,uuid"`
	ClassID        string `json:"class_id" validate:"required,uuid"`
}

func EnrollStudent(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	registrationID, _ := uuid.Parse(req.RegistrationID)
	classID, _ := uuid.Parse(req.ClassID)

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

	enrollment, err := services.Enroll(database.DB, registrationID, classID, middleware.ClaimUserID(c))
	if err != nil {
		return apperrors.ToResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    "Student enrolled successfully",
		"enrollment": enrollment,
	})
}

func ListEnrollments(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Enrollment{})
	if own := middleware.ClaimBranchID(c); own != nil {
		query = query.Where("branch_id = ?", *own)
	}
	if class := c.Query("class_id"); class != "" {
		classID, err := uuid.Parse(class)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class_id"})
		}
		query = query.Where("class_id = ?", classID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var enrollments []models.Enrollment
	err := query.Preload("Student").Preload("Class").Order("enrollment_date desc").Find(&enrollments).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list enrollments"})
	}
	return c.JSON(fiber.Map{"enrollments": enrollments})
}
