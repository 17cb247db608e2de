package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"sushikoi/internal/config"
	"sushikoi/internal/domain"
	"sushikoi/internal/geo"
	httpapi "sushikoi/internal/http"
	"sushikoi/internal/logging"
	"sushikoi/internal/notify"
	"sushikoi/internal/repository"
	"sushikoi/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the packing ticker",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	log, err := logging.New(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	col := repository.NewCollections(store, log)

	notifier, err := notify.Open(cfg.Notify, log)
	if err != nil {
		log.Warn("notifier unavailable, falling back to log", "driver", cfg.Notify.Driver, "error", err)
		notifier = notify.NewLogNotifier(log)
	}
	defer notifier.Close()

	origin := domain.LatLng{Lat: cfg.Shop.OriginLat, Lng: cfg.Shop.OriginLng}
	nominatim := geo.NewNominatim(cfg.Geocoding, nil)
	osrm := geo.NewOSRM(cfg.Routing, cfg.Geocoding.UserAgent, nil)
	sessions := geo.NewSessions(
		geo.NewGeocoder(nominatim, cfg.Shop.DefaultCity, cfg.Shop.Region),
		geo.NewReverseGeocoder(nominatim),
	)

	orders := service.NewOrderService(col, service.OrderOptions{
		PackingDuration: cfg.Packing.Duration,
		Origin:          origin,
		Router:          osrm,
		Notifier:        notifier,
		Log:             log,
	})
	orders.Load(ctx)
	promotions := service.NewPromotionService(col, nil)
	promotions.Load(ctx)
	customers := service.NewCustomerService(col)
	customers.Load(ctx)

	tickerDone := service.NewTicker(orders, cfg.Packing.Tick, log).Start(ctx)
	// runs before the store and notifier are closed
	defer func() {
		stop()
		<-tickerDone
	}()

	gin.SetMode(cfg.Server.GinMode)
	srv := httpapi.NewServer(httpapi.Deps{
		Orders:     orders,
		Promotions: promotions,
		Customers:  customers,
		Sessions:   sessions,
		Router:     osrm,
		Origin:     origin,
		CityHint:   cfg.Shop.DefaultCity,
		Log:        log,
	})

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv.Engine(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", httpServer.Addr, "storage", cfg.Storage.Driver, "shop", cfg.Shop.Name)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
