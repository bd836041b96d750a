package database

import (
	"context"
	"testing"

	"carpool/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMigrations(t *testing.T) {
	migrations := getMigrations()
	require.Len(t, migrations, 2)
	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version)
		assert.NotNil(t, m.Up)
		assert.NotNil(t, m.Down)
	}
}

func TestMigratorUp(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("fresh database", func(mt *mtest.T) {
		migrator := NewMigrator(mt.DB, logger.Discard())
		ns := mt.DB.Name() + "." + migrationsCollection

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
		)

		require.NoError(mt, migrator.Up(context.Background()))
	})

	mt.Run("already current", func(mt *mtest.T) {
		migrator := NewMigrator(mt.DB, logger.Discard())
		ns := mt.DB.Name() + "." + migrationsCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "version", Value: 2}}))

		require.NoError(mt, migrator.Up(context.Background()))
	})

	mt.Run("index failure", func(mt *mtest.T) {
		migrator := NewMigrator(mt.DB, logger.Discard())
		ns := mt.DB.Name() + "." + migrationsCollection

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "not authorized"}),
		)

		err := migrator.Up(context.Background())
		assert.ErrorContains(mt, err, "migration 1 failed")
	})
}

func TestMigratorDown(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("reverts to zero", func(mt *mtest.T) {
		migrator := NewMigrator(mt.DB, logger.Discard())
		ns := mt.DB.Name() + "." + migrationsCollection
		ok := mtest.CreateSuccessResponse()
		updated := mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1})

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "version", Value: 2}}),
			ok, ok, updated,
			ok, ok, ok, updated,
		)

		require.NoError(mt, migrator.Down(context.Background(), 0))
	})

	mt.Run("nothing to revert", func(mt *mtest.T) {
		migrator := NewMigrator(mt.DB, logger.Discard())
		ns := mt.DB.Name() + "." + migrationsCollection

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		require.NoError(mt, migrator.Down(context.Background(), 0))
	})
}
