package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	cartgrpc "github.com/fjod/go_cart/cart-store/internal/grpc"
	carthttp "github.com/fjod/go_cart/cart-store/internal/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the cart over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	log := a.logger

	svc, backend, closeFn, err := a.openCart(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	router := carthttp.NewRouter(svc, carthttp.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
		Health:         backend,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var grpcLis net.Listener
	if cfg.GRPCPort != "" {
		grpcLis, err = net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("cart API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcLis != nil {
		checker := cartgrpc.NewHealthChecker(backend, cfg.HealthInterval, log)
		grpcServer := cartgrpc.NewServer(checker)

		g.Go(func() error {
			checker.Run(gctx)
			return nil
		})
		g.Go(func() error {
			log.Info("health service listening", zap.String("addr", grpcLis.Addr().String()))
			return grpcServer.Serve(grpcLis)
		})
		g.Go(func() error {
			<-gctx.Done()
			grpcServer.GracefulStop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down cart service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("cart service stopped")
	return nil
}
