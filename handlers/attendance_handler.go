package handlers

import (
	"errors"
	"time"

	"github.com/eyobtef/school_admin/database"
	"github.com/eyobtef/school_admin/middleware"
	"github.com/eyobtef/school_admin/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceEntry struct {
	StudentID string  `json:"student_id" validate:"required,uuid"`
	Status    string  `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Remark    *string `json:"remark,omitempty"`
}

type MarkAttendanceRequest struct {
	ClassID string            `json:"class_id" validate:"required,uuid"`
	Date    string            `json:"date" validate:"required"` // YYYY-MM-DD
	Entries []AttendanceEntry `json:"entries" validate:"required,min=1,dive"`
}

// MarkAttendance records a class's attendance sheet for one day. Re-marking
// the same student+class+date overwrites the earlier status.
func MarkAttendance(c *fiber.Ctx) error {
	var req MarkAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	classID, _ := uuid.Parse(req.ClassID)
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
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

	markedBy := middleware.ClaimUserID(c)
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		for _, entry := range req.Entries {
			studentID, _ := uuid.Parse(entry.StudentID)
			record := models.AttendanceRecord{
				StudentID:  studentID,
				ClassID:    classID,
				Date:       date,
				Status:     entry.Status,
				Remark:     entry.Remark,
				MarkedByID: markedBy,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "student_id"}, {Name: "class_id"}, {Name: "date"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "remark", "marked_by_id"}),
			}).Create(&record).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to record attendance"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Attendance recorded",
		"count":   len(req.Entries),
	})
}

func ListAttendance(c *fiber.Ctx) error {
	classID, err := uuid.Parse(c.Query("class_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or missing class_id"})
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or missing date, expected YYYY-MM-DD"})
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

	var records []models.AttendanceRecord
	err = database.DB.Preload("Student").
		Where("class_id = ? AND date = ?", classID, date).
		Find(&records).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list attendance"})
	}
	return c.JSON(fiber.Map{"attendance": records})
}
