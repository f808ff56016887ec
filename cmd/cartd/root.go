package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/cart-store/internal/config"
	"github.com/fjod/go_cart/cart-store/internal/logger"
	"github.com/fjod/go_cart/cart-store/internal/service"
	"github.com/fjod/go_cart/cart-store/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrEphemeralBackend is returned by the item commands: a memory cart is gone
// as soon as the command exits.
var ErrEphemeralBackend = errors.New("item commands need a persistent storage backend (redis or mongo)")

type app struct {
	configPath string
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "cartd",
		Short:         "Shopping cart store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			l, err := logger.New(logger.Options{
				Service: "cartd",
				Level:   cfg.LogLevel,
				Format:  cfg.LogFormat,
			})
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(l)
			a.cfg = cfg
			a.logger = l
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(
		newServeCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newItemCmd(a, "increment", "Increase the quantity of a product", (*service.CartService).Increment),
		newItemCmd(a, "decrement", "Decrease the quantity of a product, removing it at zero", (*service.CartService).Decrement),
		newItemCmd(a, "remove", "Remove a product from the cart", (*service.CartService).Remove),
	)
	return root
}

// openStorage connects the configured backend. The returned func releases it.
func (a *app) openStorage(ctx context.Context) (storage.Storage, func(), error) {
	sc := a.cfg.Storage
	var (
		backend storage.Storage
		closeFn = func() {}
	)

	switch sc.Backend {
	case config.BackendMemory:
		backend = storage.NewMemoryStorage()
	case config.BackendRedis:
		client, err := storage.ConnectRedis(ctx, sc.RedisAddr, sc.RedisPassword, sc.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("connected to redis", zap.String("addr", sc.RedisAddr))
		backend = storage.NewRedisStorage(client, sc.TTL)
		closeFn = func() { _ = client.Close() }
	case config.BackendMongo:
		db, err := storage.ConnectMongo(ctx, storage.MongoConfig{
			URI:      sc.MongoURI,
			Database: sc.MongoDBName,
		})
		if err != nil {
			return nil, nil, err
		}
		a.logger.Info("connected to mongodb", zap.String("db", sc.MongoDBName))
		mongo := storage.NewMongoStorage(db)
		if err := mongo.CreateIndexes(ctx, sc.TTL); err != nil {
			_ = mongo.Disconnect(ctx)
			return nil, nil, err
		}
		backend = mongo
		closeFn = func() { _ = mongo.Disconnect(context.Background()) }
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, sc.Backend)
	}

	if sc.BreakerEnabled {
		backend = storage.NewBreakerStorage(backend, storage.DefaultBreakerSettings(), a.logger)
	}
	return backend, closeFn, nil
}

// openCart opens storage and returns a loaded cart store.
func (a *app) openCart(ctx context.Context) (*service.CartService, storage.Storage, func(), error) {
	backend, closeFn, err := a.openStorage(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := service.NewCartService(backend,
		service.WithKey(a.cfg.Storage.Key),
		service.WithLogger(a.logger),
	)
	if err := svc.Load(ctx); err != nil {
		a.logger.Warn("starting with an empty cart", zap.Error(err))
	}
	return svc, backend, closeFn, nil
}

// openPersistentCart is openCart for one-shot commands, which are pointless
// against the memory backend.
func (a *app) openPersistentCart(ctx context.Context) (*service.CartService, func(), error) {
	if a.cfg.Storage.Backend == config.BackendMemory {
		return nil, nil, ErrEphemeralBackend
	}
	svc, _, closeFn, err := a.openCart(ctx)
	if err != nil {
		return nil, nil, err
	}
	return svc, closeFn, nil
}
