package handler

import (
	"errors"
	"fmt"
	"time"

	"backend-smartqueue/internal/config"
	"backend-smartqueue/internal/mailer"
	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/queue"
	"backend-smartqueue/internal/realtime"
	"backend-smartqueue/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookAppointment creates a booked appointment with the server-observed
// time, then fans out the recomputed queue.
func BookAppointment(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	var req models.BookAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ProviderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing providerId",
		})
	}

	providerID, err := primitive.ObjectIDFromHex(req.ProviderID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid service provider",
		})
	}

	provider, err := store.GetUserByID(c.Context(), providerID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && provider.Role != models.RoleProvider) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid service provider",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to validate provider",
		})
	}

	if !config.GetEnvBool("ALLOW_MULTI_BOOKING", true) {
		active, err := store.HasActiveAppointment(c.Context(), userID, providerID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to validate booking",
			})
		}
		if active {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "You already have an active appointment with this provider",
			})
		}
	}

	// The server observes the booking time; clients never supply it.
	now := time.Now()
	appt := &models.Appointment{
		UserID:     userID,
		ProviderID: providerID,
		Datetime:   now,
		Status:     models.StatusBooked,
	}
	if err := store.CreateAppointment(c.Context(), appt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to book appointment",
		})
	}

	providerName := provider.ServiceName
	if providerName == "" {
		providerName = provider.FullName
	}
	customerName, _ := c.Locals("full_name").(string)

	mailer.SendAsync(
		provider.Email,
		"New Appointment Booked",
		fmt.Sprintf(
			`<h2>Hello %s,</h2>
			<p>A new appointment has been booked by <b>%s</b>.</p>
			<p><b>Date &amp; Time:</b> %s</p>
			<p>Please login to your dashboard for more details.</p>`,
			providerName, customerName, now.Format("Jan 2, 2006 3:04 PM"),
		),
	)
	notify(c.Context(), userID,
		fmt.Sprintf("Appointment booked with %s for %s.", providerName, now.Format("Jan 2, 2006 3:04 PM")),
		map[string]any{"appointmentId": appt.ID.Hex()},
	)

	go realtime.PublishProviderQueue(providerID)
	go realtime.PublishAppointmentCreated(userID, appt)

	return c.Status(fiber.StatusCreated).JSON(appt)
}

// ListMyAppointments returns the caller's appointments in every status,
// annotated with provider summaries.
func ListMyAppointments(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	views, err := store.AppointmentsByCustomer(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list appointments",
		})
	}
	if views == nil {
		views = []models.AppointmentView{}
	}
	return c.JSON(views)
}

// QueueStatus returns the caller's active appointments with their live
// position and wait estimate. For each one the owning provider's queue is
// recomputed in full and the caller's entry located inside it; an
// appointment outside the active queue carries null position/estimate.
func QueueStatus(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
	}

	views, err := store.ActiveByCustomer(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute queue status",
		})
	}

	for i := range views {
		entries, err := store.ActiveQueue(c.Context(), views[i].ProviderID, []string{models.StatusBooked})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to compute queue status",
			})
		}
		queue.Project(entries, views[i].Provider.StaffCount)

		if found := queue.Find(entries, views[i].ID); found != nil {
			views[i].Position = found.Position
			views[i].EstimatedWaitMins = found.EstimatedWaitMins
		}
	}

	if views == nil {
		views = []models.AppointmentView{}
	}
	return c.JSON(views)
}

// CancelAppointment is the customer-initiated cancel: a status write,
// never a delete.
func CancelAppointment(c *fiber.Ctx) error {
	userID, ok := principalID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid principal"})
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

	if appt.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Forbidden",
		})
	}

	role, _ := c.Locals("role").(string)
	if err := queue.Check(appt.Status, models.StatusCancelled, role); err != nil {
		if errors.Is(err, queue.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Appointment can no longer be cancelled",
		})
	}

	from, _ := queue.AllowedFrom(models.StatusCancelled)
	updated, err := store.UpdateAppointmentStatus(c.Context(), apptID, from, models.StatusCancelled)
	if errors.Is(err, store.ErrStatusConflict) {
		// Lost a race with another transition; state machine holds.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Appointment can no longer be cancelled",
		})
	}
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Appointment not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to cancel appointment",
		})
	}

	providerName := "Service"
	if provider, perr := store.GetUserByID(c.Context(), appt.ProviderID); perr == nil {
		if provider.ServiceName != "" {
			providerName = provider.ServiceName
		} else if provider.FullName != "" {
			providerName = provider.FullName
		}
	}
	notify(c.Context(), userID,
		fmt.Sprintf("Appointment with %s has been cancelled.", providerName),
		map[string]any{"appointmentId": apptID.Hex()},
	)

	go realtime.PublishProviderQueue(appt.ProviderID)
	go realtime.PublishAppointmentUpdated(userID, updated)

	return c.JSON(fiber.Map{
		"message": "Appointment cancelled successfully",
	})
}
