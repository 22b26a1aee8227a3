package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"backend-smartqueue/internal/config"
	"backend-smartqueue/internal/models"

	"go.mongodb.org/mongo-driver/bson"
)

// setup connects to the test database named by MONGO_URI and skips the
// test when none is configured.
func setup(t *testing.T) context.Context {
	t.Helper()
	if os.Getenv("MONGO_URI") == "" {
		t.Skip("MONGO_URI not set, skipping store tests")
	}
	if os.Getenv("MONGO_DB") == "" {
		os.Setenv("MONGO_DB", "smartqueue_test")
	}
	if config.MongoDB == nil {
		config.InitMongo()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	t.Cleanup(func() {
		appointments().DeleteMany(context.Background(), bson.M{})
		users().DeleteMany(context.Background(), bson.M{})
	})
	return ctx
}

func seedProvider(t *testing.T, ctx context.Context, staffCount int) *models.User {
	t.Helper()
	p := &models.User{
		Role:         models.RoleProvider,
		FullName:     "Test Clinic",
		Email:        "clinic@example.com",
		MobileNumber: "0800000000",
		ServiceName:  "Test Clinic",
		StaffCount:   staffCount,
	}
	if err := CreateUser(ctx, p); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return p
}

func seedCustomer(t *testing.T, ctx context.Context, email string) *models.User {
	t.Helper()
	u := &models.User{
		Role:         models.RoleCustomer,
		FullName:     "Customer " + email,
		Email:        email,
		MobileNumber: "0811111111",
	}
	if err := CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func book(t *testing.T, ctx context.Context, u, p *models.User) *models.Appointment {
	t.Helper()
	appt := &models.Appointment{
		UserID:     u.ID,
		ProviderID: p.ID,
		Datetime:   time.Now(),
		Status:     models.StatusBooked,
	}
	if err := CreateAppointment(ctx, appt); err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}
	return appt
}

func TestActiveQueueArrivalOrder(t *testing.T) {
	ctx := setup(t)
	provider := seedProvider(t, ctx, 2)

	var want []string
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		u := seedCustomer(t, ctx, email)
		appt := book(t, ctx, u, provider)
		want = append(want, appt.ID.Hex())
	}

	entries, err := ActiveQueue(ctx, provider.ID, models.ActiveStatuses)
	if err != nil {
		t.Fatalf("ActiveQueue: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, e := range entries {
		if e.ID.Hex() != want[i] {
			t.Errorf("entry %d = %s, want %s", i, e.ID.Hex(), want[i])
		}
		if e.Customer.ID != e.UserID {
			t.Errorf("entry %d: customer lookup mismatch", i)
		}
	}
}

func TestUpdateAppointmentStatusConditional(t *testing.T) {
	ctx := setup(t)
	provider := seedProvider(t, ctx, 1)
	customer := seedCustomer(t, ctx, "race@example.com")
	appt := book(t, ctx, customer, provider)

	updated, err := UpdateAppointmentStatus(ctx, appt.ID, []string{models.StatusBooked}, models.StatusServing)
	if err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if updated.Status != models.StatusServing {
		t.Fatalf("status = %s, want serving", updated.Status)
	}

	// The same transition again must lose: the prior status no longer
	// matches the condition.
	_, err = UpdateAppointmentStatus(ctx, appt.ID, []string{models.StatusBooked}, models.StatusServing)
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("second transition err = %v, want ErrStatusConflict", err)
	}

	// A cancel from booked must also fail now.
	_, err = UpdateAppointmentStatus(ctx, appt.ID, []string{models.StatusBooked}, models.StatusCancelled)
	if !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("cancel err = %v, want ErrStatusConflict", err)
	}

	// Unknown id maps to ErrNotFound, not a conflict.
	missing := appt.ID
	missing[11]++
	_, err = UpdateAppointmentStatus(ctx, missing, []string{models.StatusBooked}, models.StatusServing)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestCancelLeavesRecordBehind(t *testing.T) {
	ctx := setup(t)
	provider := seedProvider(t, ctx, 1)
	customer := seedCustomer(t, ctx, "cancel@example.com")
	appt := book(t, ctx, customer, provider)

	if _, err := UpdateAppointmentStatus(ctx, appt.ID, []string{models.StatusBooked}, models.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	got, err := GetAppointment(ctx, appt.ID)
	if err != nil {
		t.Fatalf("GetAppointment after cancel: %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}

	entries, err := ActiveQueue(ctx, provider.ID, models.ActiveStatuses)
	if err != nil {
		t.Fatalf("ActiveQueue: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cancelled appointment still in active queue")
	}
}

func TestCountByStatus(t *testing.T) {
	ctx := setup(t)
	provider := seedProvider(t, ctx, 1)

	a := book(t, ctx, seedCustomer(t, ctx, "s1@example.com"), provider)
	b := book(t, ctx, seedCustomer(t, ctx, "s2@example.com"), provider)
	book(t, ctx, seedCustomer(t, ctx, "s3@example.com"), provider)

	if _, err := UpdateAppointmentStatus(ctx, a.ID, []string{models.StatusBooked}, models.StatusServing); err != nil {
		t.Fatalf("serve a: %v", err)
	}
	if _, err := UpdateAppointmentStatus(ctx, b.ID, []string{models.StatusBooked}, models.StatusCancelled); err != nil {
		t.Fatalf("cancel b: %v", err)
	}

	summary, err := CountByStatus(ctx, provider.ID)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if summary.Booked != 1 || summary.InQueue != 1 || summary.Cancelled != 1 || summary.Served != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestHasActiveAppointment(t *testing.T) {
	ctx := setup(t)
	provider := seedProvider(t, ctx, 1)
	customer := seedCustomer(t, ctx, "active@example.com")

	active, err := HasActiveAppointment(ctx, customer.ID, provider.ID)
	if err != nil {
		t.Fatalf("HasActiveAppointment: %v", err)
	}
	if active {
		t.Fatal("no appointments yet, expected inactive")
	}

	appt := book(t, ctx, customer, provider)
	active, err = HasActiveAppointment(ctx, customer.ID, provider.ID)
	if err != nil {
		t.Fatalf("HasActiveAppointment: %v", err)
	}
	if !active {
		t.Fatal("booked appointment should count as active")
	}

	if _, err := UpdateAppointmentStatus(ctx, appt.ID, []string{models.StatusBooked}, models.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	active, err = HasActiveAppointment(ctx, customer.ID, provider.ID)
	if err != nil {
		t.Fatalf("HasActiveAppointment: %v", err)
	}
	if active {
		t.Fatal("cancelled appointment should not count as active")
	}
}
