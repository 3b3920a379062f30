package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dexter/internal/app"
	"dexter/internal/ratelimit"
	"dexter/pkg/events"
	"dexter/pkg/storage"
	"dexter/pkg/store"
)

var consumeGroup string

func init() {
	workerCmd.Flags().StringVar(&consumeGroup, "consume-group", "", "also log notification events through this consumer group")
	rootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Expire invites on schedule and serve metrics",
	Long: `Run the background worker until SIGINT or SIGTERM. It expires overdue team
invites on the configured cron schedule and serves Prometheus metrics on
metricsAddr.`,
	RunE: runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s, err := openStore(store.WithMetrics(store.NewMetrics(reg)))
	if err != nil {
		return err
	}
	defer s.Close()

	var pub events.Publisher = events.NopPublisher{}
	var redisPub *events.RedisPublisher
	var limiter app.Limiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		redisPub, err = events.NewRedisPublisher(client, events.RedisPublisherConfig{
			Stream:     cfg.NotificationStream,
			Registerer: reg,
		})
		if err != nil {
			return err
		}
		pub = redisPub
		if cfg.InviteRateLimitPerHr > 0 {
			limiter, err = ratelimit.NewFixedWindowLimiter(client, "dexter:ratelimit", cfg.InviteRateLimitPerHr, time.Hour)
			if err != nil {
				return err
			}
		}
	}

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		objects, err = storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return err
		}
	}

	core, err := app.New(app.Config{
		Store:          s,
		Events:         pub,
		Objects:        objects,
		InviteTTL:      cfg.InviteTTLDuration(),
		DownloadURLTTL: cfg.DownloadURLTTLDuration(),
		InviteLimiter:  limiter,
	})
	if err != nil {
		return err
	}

	scheduler := cron.New()
	if _, err := core.ScheduleInviteExpiry(ctx, scheduler, cfg.InviteExpirySchedule); err != nil {
		return fmt.Errorf("schedule invite expiry: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("metrics server listening", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		scheduler.Start()
		slog.Info("invite expiry scheduled", "schedule", cfg.InviteExpirySchedule)
		<-gctx.Done()
		<-scheduler.Stop().Done()
		return nil
	})
	if consumeGroup != "" && redisPub != nil {
		g.Go(func() error {
			hostname, _ := os.Hostname()
			return redisPub.Subscribe(gctx, consumeGroup, hostname, func(_ context.Context, ev events.Event) error {
				slog.Info("notification event",
					"notification_id", ev.NotificationID,
					"recipient_id", ev.RecipientID,
					"event_type", ev.EventType,
					"resource_type", ev.ResourceType,
				)
				return nil
			})
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	slog.Info("worker stopped")
	return err
}
