package handler

import (
	"errors"

	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/realtime"
	"backend-smartqueue/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func AdminListUsers(c *fiber.Ctx) error {
	users, err := store.ListUsers(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list users",
		})
	}
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(users)
}

func AdminListAppointments(c *fiber.Ctx) error {
	appts, err := store.AllAppointments(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list appointments",
		})
	}
	if appts == nil {
		appts = []models.AdminAppointment{}
	}
	return c.JSON(appts)
}

func AdminUpdateUserRole(c *fiber.Ctx) error {
	userID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !models.ValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role",
		})
	}

	user, err := store.UpdateUserRole(c.Context(), userID, req.Role)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update role",
		})
	}
	return c.JSON(user)
}

// AdminPurgeAppointment hard-deletes an appointment. The only path that
// ever removes a document; normal lifecycle ends in a terminal status.
func AdminPurgeAppointment(c *fiber.Ctx) error {
	apptID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}

	appt, err := store.DeleteAppointment(c.Context(), apptID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete appointment",
		})
	}

	// A purged active appointment shifts everyone behind it.
	go realtime.PublishProviderQueue(appt.ProviderID)

	return c.JSON(fiber.Map{
		"message": "Appointment deleted",
	})
}
