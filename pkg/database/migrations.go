package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// migrationsCollection is owned by this service; the data collections belong
// to the backend, so migrations only ever add or drop indexes.
const migrationsCollection = "bff_migrations"

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
	Down        func(ctx context.Context, db *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	log        *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		log:        log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)
		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.log.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)
		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = max(targetVersion, m.migrations[i-1].Version)
		}
		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) currentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(migrationsCollection).FindOne(ctx, bson.D{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(migrationsCollection).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Index reservations for passenger and trip lookups",
			Up:          createReservationIndexes,
			Down:        dropIndexes("reservations", "passenger_created", "trip_created", "status"),
		},
		{
			Version:     2,
			Description: "Index trips for search",
			Up:          createTripIndexes,
			Down:        dropIndexes("trips", "route_departure", "driver"),
		},
	}
}

func createReservationIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "passenger", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("passenger_created"),
		},
		{
			Keys:    bson.D{{Key: "trip", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("trip_created"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status"),
		},
	}

	_, err := db.Collection("reservations").Indexes().CreateMany(ctx, indexes)
	return err
}

func createTripIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "departureCity", Value: 1},
				{Key: "arrivalCity", Value: 1},
				{Key: "departureDate", Value: 1},
			},
			Options: options.Index().SetName("route_departure"),
		},
		{
			Keys:    bson.D{{Key: "driver", Value: 1}},
			Options: options.Index().SetName("driver"),
		},
	}

	_, err := db.Collection("trips").Indexes().CreateMany(ctx, indexes)
	return err
}

func dropIndexes(collection string, names ...string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		for _, name := range names {
			if _, err := db.Collection(collection).Indexes().DropOne(ctx, name); err != nil {
				return fmt.Errorf("failed to drop index %s.%s: %w", collection, name, err)
			}
		}
		return nil
	}
}
