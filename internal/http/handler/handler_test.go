package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"backend-smartqueue/internal/config"
	"backend-smartqueue/internal/http/middleware"
	"backend-smartqueue/internal/models"
	"backend-smartqueue/internal/store"

	"github.com/gofiber/fiber/v2"
)

// setup builds the routes under test against the test database and skips
// when the required backing services are not configured.
func setup(t *testing.T) *fiber.App {
	t.Helper()
	if os.Getenv("MONGO_URI") == "" {
		t.Skip("MONGO_URI not set, skipping handler tests")
	}
	if os.Getenv("REDIS_ADDR") == "" {
		t.Skip("REDIS_ADDR not set, skipping handler tests")
	}
	if os.Getenv("MONGO_DB") == "" {
		os.Setenv("MONGO_DB", "smartqueue_handler_test")
	}
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "handler-test-secret")
	}
	if config.MongoDB == nil {
		config.InitMongo()
	}
	if config.Redis == nil {
		config.InitRedis()
	}

	t.Cleanup(func() {
		ctx := config.Ctx
		config.MongoDB.Collection("appointments").Drop(ctx)
		config.MongoDB.Collection("users").Drop(ctx)
		config.MongoDB.Collection("notifications").Drop(ctx)
	})

	app := fiber.New()
	api := app.Group("/api", middleware.JWTAuth())
	api.Post("/appointments", BookAppointment)
	api.Get("/appointments/status", QueueStatus)
	api.Delete("/appointments/:id", CancelAppointment)
	return app
}

func seedUser(t *testing.T, role, email string, staffCount int) (*models.User, string) {
	t.Helper()
	u := &models.User{
		Role:         role,
		FullName:     "Test " + email,
		Email:        email,
		MobileNumber: "0800000000",
		StaffCount:   staffCount,
	}
	if role == models.RoleProvider {
		u.ServiceName = "Clinic " + email
	}
	if err := store.CreateUser(config.Ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	token, err := config.GenerateToken(u.ID.Hex(), u.FullName, u.Email, u.Role)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return u, token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, 15000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, raw
}

func TestBookThenQueueStatus(t *testing.T) {
	app := setup(t)
	provider, _ := seedUser(t, models.RoleProvider, "roundtrip-clinic@example.com", 1)
	_, aliceToken := seedUser(t, models.RoleCustomer, "roundtrip-alice@example.com", 0)
	_, bobToken := seedUser(t, models.RoleCustomer, "roundtrip-bob@example.com", 0)

	resp, raw := doJSON(t, app, "POST", "/api/appointments", aliceToken,
		`{"providerId":"`+provider.ID.Hex()+`"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("book = %d, body %s", resp.StatusCode, raw)
	}
	var booked models.Appointment
	if err := json.Unmarshal(raw, &booked); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	if booked.Status != models.StatusBooked {
		t.Fatalf("created status = %s, want booked", booked.Status)
	}

	resp, raw = doJSON(t, app, "POST", "/api/appointments", bobToken,
		`{"providerId":"`+provider.ID.Hex()+`"}`)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("second book = %d, body %s", resp.StatusCode, raw)
	}

	// The booking is visible on the status endpoint immediately, with a
	// non-null position reflecting arrival order and the staff-adjusted
	// wait estimate.
	resp, raw = doJSON(t, app, "GET", "/api/appointments/status", aliceToken, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, raw)
	}
	var views []models.AppointmentView
	if err := json.Unmarshal(raw, &views); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d active appointments, want 1", len(views))
	}
	v := views[0]
	if v.ID != booked.ID || v.Status != models.StatusBooked {
		t.Fatalf("status view = %+v", v)
	}
	if v.Position == nil || *v.Position != 1 {
		t.Fatalf("position = %v, want 1", v.Position)
	}
	if v.EstimatedWaitMins == nil || *v.EstimatedWaitMins != 10 {
		t.Fatalf("estimated wait = %v, want 10", v.EstimatedWaitMins)
	}

	// Second arrival sits behind the first.
	resp, raw = doJSON(t, app, "GET", "/api/appointments/status", bobToken, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, raw)
	}
	views = nil
	if err := json.Unmarshal(raw, &views); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if len(views) != 1 || views[0].Position == nil || *views[0].Position != 2 {
		t.Fatalf("second arrival views = %+v", views)
	}
	if *views[0].EstimatedWaitMins != 20 {
		t.Fatalf("second arrival wait = %d, want 20", *views[0].EstimatedWaitMins)
	}
}

func TestCancelByNonOwnerForbidden(t *testing.T) {
	app := setup(t)
	provider, _ := seedUser(t, models.RoleProvider, "owner-clinic@example.com", 1)
	_, aliceToken := seedUser(t, models.RoleCustomer, "owner-alice@example.com", 0)
	_, bobToken := seedUser(t, models.RoleCustomer, "owner-bob@example.com", 0)

	_, raw := doJSON(t, app, "POST", "/api/appointments", aliceToken,
		`{"providerId":"`+provider.ID.Hex()+`"}`)
	var booked models.Appointment
	if err := json.Unmarshal(raw, &booked); err != nil {
		t.Fatalf("decode booking: %v", err)
	}

	// Another customer may not cancel the appointment, and the attempt
	// must leave the record untouched.
	resp, raw := doJSON(t, app, "DELETE", "/api/appointments/"+booked.ID.Hex(), bobToken, "")
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("non-owner cancel = %d, body %s", resp.StatusCode, raw)
	}
	got, err := store.GetAppointment(config.Ctx, booked.ID)
	if err != nil {
		t.Fatalf("GetAppointment: %v", err)
	}
	if got.Status != models.StatusBooked {
		t.Fatalf("status after forbidden cancel = %s, want booked", got.Status)
	}

	// The owner's cancel goes through and ends in the terminal status.
	resp, raw = doJSON(t, app, "DELETE", "/api/appointments/"+booked.ID.Hex(), aliceToken, "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("owner cancel = %d, body %s", resp.StatusCode, raw)
	}
	got, err = store.GetAppointment(config.Ctx, booked.ID)
	if err != nil {
		t.Fatalf("GetAppointment: %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Fatalf("status after owner cancel = %s, want cancelled", got.Status)
	}

	// Give the fire-and-forget fan-out goroutines a beat before cleanup
	// drops the collections under them.
	time.Sleep(100 * time.Millisecond)
}
