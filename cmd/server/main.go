// cmd/server/main.go
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/salonbook/internal/api/auth"
	"github.com/codr1/salonbook/internal/booking"
	"github.com/codr1/salonbook/internal/calendar"
	"github.com/codr1/salonbook/internal/config"
	"github.com/codr1/salonbook/internal/db"
	"github.com/codr1/salonbook/internal/email"
	"github.com/codr1/salonbook/internal/ics"
	"github.com/codr1/salonbook/internal/metrics"
	"github.com/codr1/salonbook/internal/notify"
	"github.com/codr1/salonbook/internal/ratelimit"
	"github.com/codr1/salonbook/internal/scheduler"
	"github.com/codr1/salonbook/internal/slots"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(environment string, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	// log.Ctx falls back to the global logger outside requests.
	zerolog.DefaultContextLogger = &log.Logger
}

func newQueue(ctx context.Context, cfg *config.Config) (notify.Queue, error) {
	switch cfg.Notifications.Queue {
	case "redis":
		q := notify.NewRedisQueue(notify.RedisOptions{
			Addr:     cfg.Notifications.Redis.Addr,
			Password: cfg.Notifications.Redis.Password,
			DB:       cfg.Notifications.Redis.DB,
			Key:      cfg.Notifications.Redis.Key,
		})
		if err := q.Ping(ctx); err != nil {
			q.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return q, nil
	default:
		return notify.NewMemoryQueue(cfg.Notifications.BufferSize), nil
	}
}

func newSender(ctx context.Context, cfg *config.Config) (email.Sender, error) {
	from := (&mail.Address{Name: cfg.Email.FromName, Address: cfg.Email.FromEmail}).String()
	switch cfg.Email.Provider {
	case "ses":
		return email.NewSESClient(ctx,
			cfg.Email.SES.AccessKeyID,
			cfg.Email.SES.SecretAccessKey,
			cfg.Email.SES.Region,
			from,
		)
	case "smtp":
		return email.NewSMTPSender(
			cfg.Email.SMTP.Host,
			cfg.Email.SMTP.Port,
			cfg.Email.SMTP.Username,
			cfg.Email.SMTP.Password,
			from,
		)
	default:
		return email.LogSender{}, nil
	}
}

func main() {
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment, cfg.Features.EnableDebug)
	shutdownTimeout := time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("filename", cfg.Database.Filename).Msg("Failed to open database")
	}
	defer database.Close()

	if err := auth.EnsureAdmin(ctx, database.Queries, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	queue, err := newQueue(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("queue", cfg.Notifications.Queue).Msg("Failed to create notification queue")
	}
	defer queue.Close()

	sender, err := newSender(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Email.Provider).Msg("Failed to create email sender")
	}

	loc := cfg.Location()
	m := metrics.New()
	icsBuilder := ics.Builder{
		Domain:    cfg.Email.ICSDomain,
		SalonName: cfg.App.Name,
		BaseURL:   cfg.App.BaseURL,
		Location:  loc,
	}

	notifier := &notify.Notifier{
		Sender: sender,
		Templates: email.Templates{
			SalonName: cfg.App.Name,
			BaseURL:   cfg.App.BaseURL,
			Location:  loc,
		},
		ICS:    icsBuilder,
		Cutoff: cfg.Booking.CancellationCutoff,
	}
	if cfg.Calendar.Enabled {
		gcal, err := calendar.NewGoogleCalendar(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.CalendarID, loc)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Google Calendar client")
		}
		notifier.Calendar = gcal
	}
	worker := notify.NewWorker(queue, notifier, m, cfg.Notifications.SendTimeout)

	manager := booking.NewManager(database, queue, booking.Config{
		CancellationCutoff: cfg.Booking.CancellationCutoff,
		Location:           loc,
		Metrics:            m,
	})
	engine := slots.NewEngine(database, slots.Rules{
		StepMinutes:   cfg.Booking.SlotStepMinutes,
		BufferMinutes: cfg.Booking.BufferMinutes,
	}, m)

	tokens, err := auth.NewTokenIssuer(tokenSecret(cfg), cfg.Admin.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token issuer")
	}

	var limiter *ratelimit.Limiter
	if cfg.Features.EnableRateLimit {
		limiter = ratelimit.New(ratelimit.DefaultConfig())
		defer limiter.Close()
	}

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if cfg.Reminders.Enabled {
		reminders := scheduler.NewReminders(manager, queue, scheduler.ReminderConfig{
			Cron:        cfg.Reminders.Cron,
			HoursBefore: cfg.Reminders.HoursBefore,
		})
		if err := scheduler.RegisterReminderJob(sched, reminders, cfg.Reminders.Cron); err != nil {
			log.Fatal().Err(err).Msg("Failed to register reminder job")
		}
	}

	server := newServer(cfg, deps{
		db:      database,
		manager: manager,
		engine:  engine,
		ics:     icsBuilder,
		tokens:  tokens,
		limiter: limiter,
		metrics: m,
	})

	// The worker outlives the signal context; it drains until the queue is
	// closed after the HTTP server stops, bounded by shutdownTimeout.
	workerCtx, cancelWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWorker()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("queue", cfg.Notifications.Queue).Msg("Starting notification worker")
		return worker.Run(workerCtx)
	})

	sched.Start()

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown failed")
		}
		shutdownErr := server.Shutdown(shutdownCtx)

		log.Info().Msg("Draining notification queue")
		queue.Close()
		time.AfterFunc(shutdownTimeout, cancelWorker)

		if shutdownErr != nil {
			return fmt.Errorf("shutdown error: %w", shutdownErr)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}

// tokenSecret falls back to a per-process key outside production, so
// admin sessions do not survive a restart there.
func tokenSecret(cfg *config.Config) string {
	if cfg.App.SecretKey != "" {
		return cfg.App.SecretKey
	}
	log.Warn().Msg("APP_SECRET_KEY not set; using an ephemeral signing key")
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate signing key")
	}
	return hex.EncodeToString(key)
}
