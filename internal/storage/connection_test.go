package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

func TestMongoConfig_Defaults(t *testing.T) {
	opts := MongoConfig{URI: "mongodb://localhost:27017", Database: "carts"}.clientOptions()
	require.NoError(t, opts.Validate())

	require.NotNil(t, opts.AppName)
	assert.Equal(t, "cartd", *opts.AppName)
	assert.Equal(t, 10*time.Second, *opts.ConnectTimeout)
	assert.Equal(t, 5*time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, uint64(4), *opts.MaxPoolSize)
	assert.True(t, *opts.RetryWrites)
	assert.Equal(t, writeconcern.Majority(), opts.WriteConcern)
}

func TestMongoConfig_Overrides(t *testing.T) {
	opts := MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "carts",
		AppName:        "cart-cli",
		ConnectTimeout: time.Second,
		SelectTimeout:  2 * time.Second,
		MaxPoolSize:    16,
	}.clientOptions()

	assert.Equal(t, "cart-cli", *opts.AppName)
	assert.Equal(t, time.Second, *opts.ConnectTimeout)
	assert.Equal(t, 2*time.Second, *opts.ServerSelectionTimeout)
	assert.Equal(t, uint64(16), *opts.MaxPoolSize)
}

func TestConnectMongo_RequiresDatabase(t *testing.T) {
	_, err := ConnectMongo(context.Background(), MongoConfig{URI: "mongodb://localhost:27017"})
	assert.ErrorIs(t, err, ErrMissingDatabase)
}
