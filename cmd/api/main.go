package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/config"
	appHTTP "github.com/patrolops/patrol-backend-go/internal/handler/http"
	"github.com/patrolops/patrol-backend-go/internal/pkg/cache"
	"github.com/patrolops/patrol-backend-go/internal/pkg/cron"
	"github.com/patrolops/patrol-backend-go/internal/pkg/database"
	"github.com/patrolops/patrol-backend-go/internal/pkg/jwt"
	"github.com/patrolops/patrol-backend-go/internal/pkg/metrics"
	"github.com/patrolops/patrol-backend-go/internal/pkg/sse"
	"github.com/patrolops/patrol-backend-go/internal/repository/postgresql"
	attendanceService "github.com/patrolops/patrol-backend-go/internal/service/attendance"
	serviceAuth "github.com/patrolops/patrol-backend-go/internal/service/auth"
	checkpointService "github.com/patrolops/patrol-backend-go/internal/service/checkpoint"
	shiftService "github.com/patrolops/patrol-backend-go/internal/service/shift"
	"github.com/redis/go-redis/v9"
)

const checkpointCacheName = "checkpoints"

func main() {
	runJobs := flag.Bool("run-jobs", false, "run every background job once and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New("patrol")
	location := cfg.Location()

	userRepo := postgresql.NewUserRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	checkpointRepo := postgresql.NewCheckpointRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	transactor := postgresql.NewTransactor(db)

	var listingCache cache.Cache
	if addr := cfg.RedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(context.Background()).Err(); err != nil {
			// The cache falls back to the database while Redis is down.
			slog.Warn("Redis is not reachable", "addr", addr, "error", err)
		}
		listingCache = cache.NewRedisCache(client, checkpointCacheName, cfg.Cache.TTL, m)
		slog.Info("Using Redis checkpoint cache", "addr", addr)
	} else {
		listingCache = cache.NewMemoryCache(checkpointCacheName, cfg.Cache.TTL, m)
		slog.Info("Using in-memory checkpoint cache")
	}

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	authService := serviceAuth.NewAuthService(userRepo, JWTService)
	shiftSvc := shiftService.NewShiftService(transactor, shiftRepo, attendanceRepo, location)
	checkpointSvc := checkpointService.NewCheckpointService(transactor, checkpointRepo, listingCache, m)
	events := sse.NewHub()
	m.ObserveFeedSubscribers(events.TotalSubscribers)
	attendanceSvc := attendanceService.NewAttendanceService(
		transactor,
		attendanceRepo,
		shiftRepo,
		checkpointRepo,
		userRepo,
		m,
		attendanceService.Config{
			Location:            location,
			EarlyCheckInMinutes: cfg.Attendance.EarlyCheckInMinutes,
			Events:              events,
		},
	)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.AllowedOrigins,
			Metrics:        m.Handler(),
		},
		JWTService,
		appHTTP.NewAuthHandler(authService),
		appHTTP.NewShiftHandler(shiftSvc),
		appHTTP.NewCheckpointHandler(checkpointSvc),
		appHTTP.NewAttendanceHandler(attendanceSvc, events),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := cron.NewScheduler(m)
	cron.NewAttendanceJobs(transactor, shiftRepo, attendanceRepo, location).RegisterJobs(scheduler)

	if *runJobs {
		if failed := scheduler.RunOnce(ctx); failed > 0 {
			slog.Error("Background jobs failed", "failed", failed)
			stop()
			db.Close()
			os.Exit(1)
		}
		slog.Info("Background jobs completed")
		return
	}
	scheduler.Start(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env, "timezone", location.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	scheduler.Stop()
}
