package handler

import (
	"errors"

	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListNotifications pages the caller's notifications, newest first.
// Query: ?limit=10&skip=0
func ListNotifications(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	limit := int64(c.QueryInt("limit", 10))
	if limit < 1 {
		limit = 10
	}
	skip := int64(c.QueryInt("skip", 0))
	if skip < 0 {
		skip = 0
	}

	notifs, total, err := store.ListNotifications(c.Context(), userID, limit, skip)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list notifications",
		})
	}
	if notifs == nil {
		notifs = []models.Notification{}
	}

	return c.JSON(fiber.Map{
		"total":         total,
		"count":         len(notifs),
		"notifications": notifs,
	})
}

func MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	if err := store.MarkAllNotificationsRead(c.Context(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark notifications as read",
		})
	}
	return c.JSON(fiber.Map{
		"message": "All notifications marked as read",
	})
}

func MarkNotificationRead(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	notifID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}

	notif, err := store.MarkNotificationRead(c.Context(), notifID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark notification as read",
		})
	}
	return c.JSON(notif)
}

func DeleteNotification(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	notifID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}

	err = store.DeleteNotification(c.Context(), notifID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete notification",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Notification deleted",
	})
}

func ClearNotifications(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	if err := store.ClearNotifications(c.Context(), userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to clear notifications",
		})
	}
	return c.JSON(fiber.Map{
		"message": "All notifications cleared",
	})
}
