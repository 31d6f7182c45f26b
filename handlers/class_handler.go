package handlers

import (
	"errors"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateClassRequest struct {
	BranchID       string  `json:"branch_id" validate:"required,uuid"`
	GradeID        string  `json:"grade_id" validate:"required,uuid"`
	AcademicYearID string  `json:"academic_year_id" validate:"required,uuid"`
	Name           string  `json:"name" validate:"required"`
	Capacity       int     `json:"capacity" validate:"required,gt=0"`
	HomeroomID     *string `json:"homeroom_id,omitempty" validate:"omitempty,uuid"`
}

func CreateClass(c *fiber.Ctx) error {
	var req CreateClassRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	branchID, _ := uuid.Parse(req.BranchID)
	gradeID, _ := uuid.Parse(req.GradeID)
	yearID, _ := uuid.Parse(req.AcademicYearID)
	if !middleware.CanAccessBranch(c, branchID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cross-branch access"})
	}

	var homeroomID *uuid.UUID
	if req.HomeroomID != nil && *req.HomeroomID != "" {
		id, _ := uuid.Parse(*req.HomeroomID)
		homeroomID = &id
	}

	class := models.Class{
		BranchID:       branchID,
		GradeID:        gradeID,
		AcademicYearID: yearID,
		Name:           req.Name,
		Capacity:       req.Capacity,
		HomeroomID:     homeroomID,
	}
	if err := database.DB.Create(&class).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create class"})
	}
	return c.Status(fiber.StatusCreated).JSON(class)
}

func ListClasses(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Class{})
	if own := middleware.ClaimBranchID(c); own != nil {
		query = query.Where("branch_id = ?", *own)
	}
	if year := c.Query("academic_year_id"); year != "" {
		yearID, err := uuid.Parse(year)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid academic_year_id"})
		}
		query = query.Where("academic_year_id = ?", yearID)
	}

	var classes []models.Class
	if err := query.Order("name").Find(&classes).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list classes"})
	}

	// Seat usage travels with each class so the enrollment UI can grey out
	// full sections.
	type classWithSeats struct {
		models.Class
		ActiveEnrollments int64 `json:"active_enrollments"`
	}
	out := make([]classWithSeats, 0, len(classes))
	for _, class := range classes {
		var active int64
		err := database.DB.Model(&models.Enrollment{}).
			Where("class_id = ? AND status = ?", class.ID, models.EnrollmentActive).
			Count(&active).Error
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count enrollments"})
		}
		out = append(out, classWithSeats{Class: class, ActiveEnrollments: active})
	}

	return c.JSON(fiber.Map{"classes": out})
}

func GetClass(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid class ID format"})
	}

	var class models.Class
	if err := database.DB.First(&class, "id = ?", classID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Class not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	if !middleware.CanAccessBranch(c, class.BranchID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden: cross-branch access"})
	}
	return c.JSON(class)
}
