package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

var ErrMissingDatabase = errors.New("mongo database name is required")

// MongoConfig describes the connection for MongoStorage. Zero timeouts fall
// back to the defaults below.
type MongoConfig struct {
	URI            string
	Database       string
	AppName        string
	ConnectTimeout time.Duration
	SelectTimeout  time.Duration
	MaxPoolSize    uint64
}

const (
	defaultMongoAppName        = "cartd"
	defaultMongoConnectTimeout = 10 * time.Second
	defaultMongoSelectTimeout  = 5 * time.Second
	// a single snapshot document per key, so the pool stays tiny
	defaultMongoMaxPool = 4
)

func (c MongoConfig) clientOptions() *options.ClientOptions {
	if c.AppName == "" {
		c.AppName = defaultMongoAppName
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultMongoConnectTimeout
	}
	if c.SelectTimeout <= 0 {
		c.SelectTimeout = defaultMongoSelectTimeout
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = defaultMongoMaxPool
	}

	// every Set replaces the whole cart; acknowledge it from the primary
	return options.Client().
		ApplyURI(c.URI).
		SetAppName(c.AppName).
		SetConnectTimeout(c.ConnectTimeout).
		SetServerSelectionTimeout(c.SelectTimeout).
		SetMaxPoolSize(c.MaxPoolSize).
		SetReadPreference(readpref.Primary()).
		SetWriteConcern(writeconcern.Majority()).
		SetRetryWrites(true)
}

// ConnectMongo dials MongoDB and returns the cart database once the primary
// answers a ping.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	if cfg.Database == "" {
		return nil, ErrMissingDatabase
	}
	opts := cfg.clientOptions()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("mongo options: %w", err)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, *opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client.Database(cfg.Database), nil
}

func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}
