package handlers

import (
	"errors"
	"time"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateBranchRequest struct {
	Name    string  `json:"name" validate:"required,min=2"`
	Code    string  `json:"code" validate:"required,min=2,max=10,alphanum"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}

func CreateBranch(c *fiber.Ctx) error {
	var req CreateBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	branch := models.Branch{
		Name:     req.Name,
		Code:     req.Code,
		Address:  req.Address,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := database.DB.Create(&branch).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Branch code already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create branch"})
	}
	return c.Status(fiber.StatusCreated).JSON(branch)
}

func ListBranches(c *fiber.Ctx) error {
	var branches []models.Branch
	if err := database.DB.Order("name").Find(&branches).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list branches"})
	}
	return c.JSON(fiber.Map{"branches": branches})
}

type CreateGradeRequest struct {
	BranchID string `json:"branch_id" validate:"required,uuid"`
	Name     string `json:"name" validate:"required"`
	Level    int    `json:"level" validate:"required,min=0"`
}

func CreateGrade(c *fiber.Ctx) error {
	var req CreateGradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	branchID, _ := uuid.Parse(req.BranchID)

	grade := models.Grade{BranchID: branchID, Name: req.Name, Level: req.Level}
	if err := database.DB.Create(&grade).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create grade"})
	}
	return c.Status(fiber.StatusCreated).JSON(grade)
}

type CreateAcademicYearRequest struct {
	Name      string    `json:"name" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	IsCurrent bool      `json:"is_current"`
}

func CreateAcademicYear(c *fiber.Ctx) error {
	var req CreateAcademicYearRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if !req.EndDate.After(req.StartDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "End date must be after start date"})
	}

	year := models.AcademicYear{
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsCurrent: req.IsCurrent,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsCurrent {
			if err := tx.Model(&models.AcademicYear{}).Where("is_current = ?", true).
				Update("is_current", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&year).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Academic year already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create academic year"})
	}
	return c.Status(fiber.StatusCreated).JSON(year)
}

func ListAcademicYears(c *fiber.Ctx) error {
	var years []models.AcademicYear
	if err := database.DB.Order("start_date desc").Find(&years).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list academic years"})
	}
	return c.JSON(fiber.Map{"academic_years": years})
}

type CreatePricingSchemaRequest struct {
	BranchID        string  `json:"branch_id" validate:"required,uuid"`
	GradeID         string  `json:"grade_id" validate:"required,uuid"`
	RegistrationFee float64 `json:"registration_fee" validate:"min=0"`
	MonthlyFee      float64 `json:"monthly_fee" validate:"required,gt=0"`
	ServiceFee      float64 `json:"service_fee" validate:"min=0"`
}

func CreatePricingSchema(c *fiber.Ctx) error {
	var req CreatePricingSchemaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	branchID, _ := uuid.Parse(req.BranchID)
	gradeID, _ := uuid.Parse(req.GradeID)

	schema := models.PricingSchema{
		BranchID:        branchID,
		GradeID:         gradeID,
		RegistrationFee: req.RegistrationFee,
		MonthlyFee:      req.MonthlyFee,
		ServiceFee:      req.ServiceFee,
		IsActive:        true,
	}
	if err := database.DB.Create(&schema).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Pricing schema already exists for this branch and grade"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create pricing schema"})
	}
	return c.Status(fiber.StatusCreated).JSON(schema)
}
