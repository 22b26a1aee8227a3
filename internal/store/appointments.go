package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-smartqueue/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	res, err := appointments().InsertOne(ctx, appt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	appt.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var appt models.Appointment
	err := appointments().FindOne(ctx, bson.M{"_id": id}).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment %s: %w", id.Hex(), err)
	}
	return &appt, nil
}

// UpdateAppointmentStatus applies a status transition with the legality
// check enforced at the write: the update only matches when the current
// status is still in the allowed prior set. Two racing transitions on the
// same appointment cannot both succeed.
func UpdateAppointmentStatus(ctx context.Context, id primitive.ObjectID, from []string, to string) (*models.Appointment, error) {
	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var appt models.Appointment
	err := appointments().FindOneAndUpdate(ctx, filter, update, opts).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := GetAppointment(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment %s: %w", id.Hex(), err)
	}
	return &appt, nil
}

// ActiveQueue fetches a provider's appointments in the given statuses,
// ordered by arrival (created_at, then _id as the tiebreak), with the
// customer summary joined in. The projection engine fills in positions.
func ActiveQueue(ctx context.Context, providerID primitive.ObjectID, statuses []string) ([]models.QueueEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"provider": providerID, "status": bson.M{"$in": statuses}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "users", "localField": "user", "foreignField": "_id", "as": "customer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}}},
	}

	cursor, err := appointments().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to build queue for provider %s: %w", providerID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var entries []models.QueueEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode queue for provider %s: %w", providerID.Hex(), err)
	}
	return entries, nil
}

// AppointmentsByCustomer lists a customer's appointments (all statuses)
// with the provider summary joined in, newest first.
func AppointmentsByCustomer(ctx context.Context, userID primitive.ObjectID) ([]models.AppointmentView, error) {
	return customerViews(ctx, bson.M{"user": userID}, -1)
}

// ActiveByCustomer lists a customer's booked/serving appointments in
// arrival order, for the status endpoint.
func ActiveByCustomer(ctx context.Context, userID primitive.ObjectID) ([]models.AppointmentView, error) {
	filter := bson.M{"user": userID, "status": bson.M{"$in": models.ActiveStatuses}}
	return customerViews(ctx, filter, 1)
}

func customerViews(ctx context.Context, filter bson.M, sortDir int) ([]models.AppointmentView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: sortDir}, {Key: "_id", Value: sortDir}}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "users", "localField": "provider", "foreignField": "_id", "as": "provider_info",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$provider_info", "preserveNullAndEmptyArrays": true}}},
	}

	cursor, err := appointments().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var views []models.AppointmentView
	if err := cursor.All(ctx, &views); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return views, nil
}

// AppointmentsByProvider lists everything booked with a provider, newest
// first, with customer summaries.
func AppointmentsByProvider(ctx context.Context, providerID primitive.ObjectID) ([]models.QueueEntry, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"provider": providerID}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "users", "localField": "user", "foreignField": "_id", "as": "customer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}}},
	}

	cursor, err := appointments().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []models.QueueEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode provider appointments: %w", err)
	}
	return entries, nil
}

// AllAppointments lists every appointment with both parties joined, for
// the admin overview.
func AllAppointments(ctx context.Context) ([]models.AdminAppointment, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "users", "localField": "user", "foreignField": "_id", "as": "customer",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$customer", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from": "users", "localField": "provider", "foreignField": "_id", "as": "provider_info",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$provider_info", "preserveNullAndEmptyArrays": true}}},
	}

	cursor, err := appointments().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.AdminAppointment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return out, nil
}

// CountByStatus builds the provider summary in one round trip.
func CountByStatus(ctx context.Context, providerID primitive.ObjectID) (models.ProviderSummary, error) {
	var summary models.ProviderSummary

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"provider": providerID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := appointments().Aggregate(ctx, pipeline)
	if err != nil {
		return summary, fmt.Errorf("failed to count appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return summary, fmt.Errorf("failed to decode counts: %w", err)
	}

	for _, row := range rows {
		switch row.Status {
		case models.StatusBooked:
			summary.Booked = row.Count
		case models.StatusServed:
			summary.Served = row.Count
		case models.StatusCancelled:
			summary.Cancelled = row.Count
		case models.StatusServing:
			summary.InQueue = row.Count
		}
	}
	return summary, nil
}

// CountServed backs the provider profile's served counter.
func CountServed(ctx context.Context, providerID primitive.ObjectID) (int64, error) {
	return appointments().CountDocuments(ctx, bson.M{
		"provider": providerID, "status": models.StatusServed,
	})
}

// HasActiveAppointment reports whether the customer already holds a
// booked/serving appointment with this provider. Only consulted when
// multi-booking is disabled.
func HasActiveAppointment(ctx context.Context, userID, providerID primitive.ObjectID) (bool, error) {
	n, err := appointments().CountDocuments(ctx, bson.M{
		"user":     userID,
		"provider": providerID,
		"status":   bson.M{"$in": models.ActiveStatuses},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check active appointments: %w", err)
	}
	return n > 0, nil
}

// BookingsPerDay returns one bucket per day for the trailing window,
// oldest first.
func BookingsPerDay(ctx context.Context, providerID primitive.ObjectID, days int) ([]models.DayCount, error) {
	now := time.Now()
	out := make([]models.DayCount, 0, days)

	for i := days - 1; i >= 0; i-- {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -i)
		dayEnd := dayStart.AddDate(0, 0, 1)

		n, err := appointments().CountDocuments(ctx, bson.M{
			"provider":   providerID,
			"created_at": bson.M{"$gte": dayStart, "$lt": dayEnd},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to count bookings for %s: %w", dayStart.Format("01-02"), err)
		}
		out = append(out, models.DayCount{Day: dayStart.Format("01-02"), Appointments: int(n)})
	}
	return out, nil
}

// DeleteAppointment hard-deletes a record. Administrative purge only;
// every normal cancellation is a status write.
func DeleteAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var appt models.Appointment
	err := appointments().FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete appointment %s: %w", id.Hex(), err)
	}
	return &appt, nil
}
