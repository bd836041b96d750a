package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carpool/internal/booking"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/session"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	reservationsCollection = "reservations"
	tripsCollection        = "trips"
	usersCollection        = "users"
)

type reservationRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewReservationRepository reads reservations straight from the backend's database.
func NewReservationRepository(db *mongo.Database) interfaces.ReservationSource {
	return &reservationRepository{
		collection: db.Collection(reservationsCollection),
		now:        time.Now,
	}
}

func (r *reservationRepository) ListByPassenger(ctx context.Context, _ *session.Session, passengerID string) ([]booking.RawReservation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"passenger": idValue(passengerID)}}},
	}
	pipeline = append(pipeline, joinStages()...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}})

	return r.aggregate(ctx, pipeline)
}

func (r *reservationRepository) ListByDriver(ctx context.Context, _ *session.Session, driverID string) ([]booking.RawReservation, error) {
	// the driver lives on the trip, so join first and match afterwards
	pipeline := append(mongo.Pipeline{}, joinStages()...)
	pipeline = append(pipeline,
		bson.D{{Key: "$match", Value: bson.M{"trip.driver._id": idValue(driverID)}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	)

	return r.aggregate(ctx, pipeline)
}

func (r *reservationRepository) ListByTrip(ctx context.Context, _ *session.Session, tripID string) ([]booking.RawReservation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"trip": idValue(tripID)}}},
	}
	pipeline = append(pipeline, joinStages()...)
	pipeline = append(pipeline, bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}})

	return r.aggregate(ctx, pipeline)
}

func (r *reservationRepository) GetReservation(ctx context.Context, _ *session.Session, id string) (*booking.RawReservation, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"_id": idValue(id)}}},
		{{Key: "$limit", Value: 1}},
	}
	pipeline = append(pipeline, joinStages()...)

	list, err := r.aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("reservation %s: %w", id, interfaces.ErrNotFound)
	}
	return &list[0], nil
}

func (r *reservationRepository) Cancel(ctx context.Context, _ *session.Session, id string) error {
	now := r.now()
	return r.update(ctx, id, bson.M{
		"status":      string(booking.RawCancelled),
		"cancelledAt": now,
		"updatedAt":   now,
	})
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, _ *session.Session, id string, status booking.RawStatus) error {
	return r.update(ctx, id, bson.M{
		"status":    string(status),
		"updatedAt": r.now(),
	})
}

func (r *reservationRepository) update(ctx context.Context, id string, set bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": idValue(id)}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update reservation: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("reservation %s: %w", id, interfaces.ErrNotFound)
	}
	return nil
}

func (r *reservationRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]booking.RawReservation, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate reservations: %w", err)
	}
	defer cursor.Close(ctx)

	list := make([]booking.RawReservation, 0)
	for cursor.Next(ctx) {
		list = append(list, decodeReservation(cursor.Current))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reservations: %w", err)
	}

	return list, nil
}

// joinStages resolves the trip, its driver and the passenger. The original
// trip reference is kept in tripId so a dangling reference still shows up.
func joinStages() mongo.Pipeline {
	return mongo.Pipeline{
		// raw references are kept so a missed lookup still names the owner
		{{Key: "$addFields", Value: bson.M{"tripId": "$trip", "passengerId": "$passenger"}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         tripsCollection,
			"localField":   "trip",
			"foreignField": "_id",
			"as":           "trip",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$trip", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$addFields", Value: bson.M{"driverId": "$trip.driver"}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "trip.driver",
			"foreignField": "_id",
			"as":           "trip.driver",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$trip.driver", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "passenger",
			"foreignField": "_id",
			"as":           "passenger",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$passenger", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{"passenger.password": 0, "trip.driver.password": 0}}},
	}
}

// decodeReservation routes a document through the JSON decoder so both
// storage shapes of departureDate (datetime or string) are understood. A
// document that cannot be read becomes an empty reservation.
func decodeReservation(doc bson.Raw) booking.RawReservation {
	var raw booking.RawReservation
	data, err := bson.MarshalExtJSON(doc, false, false)
	if err != nil {
		return raw
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return booking.RawReservation{}
	}
	return raw
}

// idValue matches both ObjectID and plain string ids.
func idValue(id string) interface{} {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return id
	}
	return bson.M{"$in": bson.A{oid, id}}
}
