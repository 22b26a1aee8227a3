package handler

import (
	"errors"

	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func CreateStaff(c *fiber.Ctx) error {
	providerID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	var req models.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	role := req.Role
	if role == "" {
		role = "Staff"
	}

	s := &models.Staff{
		ProviderID:    providerID,
		Name:          req.Name,
		Role:          role,
		ShiftSchedule: req.ShiftSchedule,
	}
	if err := store.CreateStaff(c.Context(), s); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create staff",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(s)
}

func ListStaff(c *fiber.Ctx) error {
	providerID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	list, err := store.ListStaffByProvider(c.Context(), providerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list staff",
		})
	}
	if list == nil {
		list = []models.Staff{}
	}
	return c.JSON(list)
}

func DeleteStaff(c *fiber.Ctx) error {
	providerID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	staffID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Staff not found",
		})
	}

	s, err := store.GetStaff(c.Context(), staffID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Staff not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}
	if s.ProviderID != providerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden",
		})
	}

	if err := store.DeleteStaff(c.Context(), staffID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete staff",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Staff removed",
	})
}
