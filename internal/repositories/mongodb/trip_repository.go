package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"carpool/internal/booking"
	"carpool/internal/repositories/interfaces"
	"carpool/internal/session"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type tripRepository struct {
	collection *mongo.Collection
	limit      int
}

func NewTripRepository(db *mongo.Database) interfaces.TripSource {
	return &tripRepository{
		collection: db.Collection(tripsCollection),
		limit:      200,
	}
}

func (r *tripRepository) SearchTrips(ctx context.Context, _ *session.Session, query booking.TripQuery) ([]booking.Trip, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: tripFilter(query)}},
		{{Key: "$sort", Value: bson.D{{Key: "departureDate", Value: 1}, {Key: "departureTime", Value: 1}}}},
		{{Key: "$limit", Value: r.limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "driver",
			"foreignField": "_id",
			"as":           "driver",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$driver", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{"driver.password": 0}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to search trips: %w", err)
	}
	defer cursor.Close(ctx)

	trips := make([]booking.Trip, 0)
	for cursor.Next(ctx) {
		data, err := bson.MarshalExtJSON(cursor.Current, false, false)
		if err != nil {
			continue
		}
		var trip booking.Trip
		if err := json.Unmarshal(data, &trip); err != nil {
			continue
		}
		trips = append(trips, trip)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trips: %w", err)
	}

	return trips, nil
}

func tripFilter(query booking.TripQuery) bson.M {
	filter := bson.M{}

	if query.DepartureCity != "" {
		filter["departureCity"] = cityPattern(query.DepartureCity)
	}
	if query.ArrivalCity != "" {
		filter["arrivalCity"] = cityPattern(query.ArrivalCity)
	}

	if !query.Date.IsZero() {
		start := time.Date(query.Date.Year, query.Date.Month, query.Date.Day, 0, 0, 0, 0, time.UTC)
		// departureDate is a datetime on recent documents and a string on older ones
		filter["$or"] = bson.A{
			bson.M{"departureDate": bson.M{"$gte": start, "$lt": start.AddDate(0, 0, 1)}},
			bson.M{"departureDate": primitive.Regex{Pattern: "^" + query.Date.String()}},
		}
	}

	return filter
}

func cityPattern(city string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(city) + "$", Options: "i"}
}
