package handler

import (
	"errors"
	"fmt"

	"backend-smartqueue/internal/helper"
	"backend-smartqueue/internal/mailer"
	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/queue"
	"backend-smartqueue/internal/realtime"
	"backend-smartqueue/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GetProviderQueue returns the dashboard projection: everyone currently
// being served plus everyone waiting, positions and estimates filled in.
func GetProviderQueue(c *fiber.Ctx) error {
	providerID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	provider, err := store.GetUserByID(c.Context(), providerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load provider profile",
		})
	}

	entries, err := store.ActiveQueue(c.Context(), providerID, models.ActiveStatuses)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute queue",
		})
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}
	queue.Project(entries, provider.StaffCount)

	return c.JSON(entries)
}

// transitionNotices maps each provider action to the customer-facing
// subject and message.
var transitionNotices = map[string]struct {
	subject string
	message string
}{
	models.StatusServing: {
		subject: "Your Appointment is Now Being Served",
		message: "Your appointment is now being served.",
	},
	models.StatusServed: {
		subject: "Your Appointment is Completed",
		message: "Your appointment has been completed successfully.",
	},
	models.StatusNoShow: {
		subject: "You Missed Your Appointment",
		message: "It seems you missed your appointment. Please rebook if needed.",
	},
}

// UpdateQueueStatus advances an appointment through the state machine on
// behalf of the owning provider.
func UpdateQueueStatus(c *fiber.Ctx) error {
	providerID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	var req models.QueueActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	notice, known := transitionNotices[req.Action]
	if !known {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid action",
		})
	}

	apptID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}

	appt, err := store.GetAppointment(c.Context(), apptID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	if appt.ProviderID != providerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden",
		})
	}

	if err := queue.Check(appt.Status, req.Action, models.RoleProvider); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Cannot move appointment from %s to %s", appt.Status, req.Action),
		})
	}

	from, _ := queue.AllowedFrom(req.Action)
	updated, err := store.UpdateAppointmentStatus(c.Context(), apptID, from, req.Action)
	if errors.Is(err, store.ErrStatusConflict) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Cannot move appointment from %s to %s", appt.Status, req.Action),
		})
	}
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update appointment",
		})
	}

	notify(c.Context(), updated.UserID, notice.subject,
		map[string]any{"appointmentId": updated.ID.Hex()},
	)
	if customer, cerr := store.GetUserByID(c.Context(), updated.UserID); cerr == nil && customer.Email != "" {
		name := customer.FullName
		if name == "" {
			name = "User"
		}
		mailer.SendAsync(customer.Email, notice.subject,
			fmt.Sprintf("<p>Dear %s,</p><p>%s</p>", name, notice.message))
	}

	go realtime.PublishProviderQueue(providerID)
	go realtime.PublishAppointmentUpdated(updated.UserID, updated)

	return c.JSON(updated)
}

// ProviderSummary returns the caller's counts by status.
func ProviderSummary(c *fiber.Ctx) error {
	providerID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	summary, err := store.CountByStatus(c.Context(), providerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute summary",
		})
	}
	return c.JSON(summary)
}

// ProviderProfile returns the caller's own profile plus a served counter.
func ProviderProfile(c *fiber.Ctx) error {
	providerID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	provider, err := store.GetUserByID(c.Context(), providerID)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Service provider not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database error",
		})
	}

	served, err := store.CountServed(c.Context(), providerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count served appointments",
		})
	}

	return c.JSON(struct {
		*models.User
		ServedCount int64 `json:"served_count"`
	}{provider, served})
}

// ProviderAppointments lists everything ever booked with the caller.
func ProviderAppointments(c *fiber.Ctx) error {
	providerID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	entries, err := store.AppointmentsByProvider(c.Context(), providerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list appointments",
		})
	}
	if entries == nil {
		entries = []models.QueueEntry{}
	}
	return c.JSON(entries)
}

type providerListItem struct {
	models.ProviderInfo
	ServiceStart string `json:"service_start,omitempty"`
	ServiceEnd   string `json:"service_end,omitempty"`
	Description  string `json:"description,omitempty"`
	IsOpen       bool   `json:"is_open"`
}

// ListProviders is the public provider directory customers book from.
func ListProviders(c *fiber.Ctx) error {
	providers, err := store.ListProviders(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list providers",
		})
	}

	items := make([]providerListItem, 0, len(providers))
	for _, p := range providers {
		items = append(items, providerListItem{
			ProviderInfo: models.ProviderInfo{
				ID:              p.ID,
				ServiceName:     p.ServiceName,
				ServiceLocation: p.ServiceLocation,
				Email:           p.Email,
				MobileNumber:    p.MobileNumber,
				StaffCount:      p.StaffCount,
			},
			ServiceStart: p.ServiceStart,
			ServiceEnd:   p.ServiceEnd,
			Description:  p.Description,
			IsOpen:       helper.IsProviderOpen(p.ServiceStart, p.ServiceEnd),
		})
	}
	return c.JSON(items)
}

// ProviderStats returns bookings per day over the trailing week.
func ProviderStats(c *fiber.Ctx) error {
	providerID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Service provider not found",
		})
	}

	stats, err := store.BookingsPerDay(c.Context(), providerID, 7)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute stats",
		})
	}
	return c.JSON(stats)
}
