package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	cronhandler "github.com/torsdagskos/backend/internal/api/handlers/cron"
	eventhandler "github.com/torsdagskos/backend/internal/api/handlers/event"
	memberhandler "github.com/torsdagskos/backend/internal/api/handlers/member"
	rsvphandler "github.com/torsdagskos/backend/internal/api/handlers/rsvp"
	"github.com/torsdagskos/backend/internal/api/router"
	"github.com/torsdagskos/backend/internal/api/server"
	"github.com/torsdagskos/backend/internal/civiltime"
	"github.com/torsdagskos/backend/internal/config"
	eventrepo "github.com/torsdagskos/backend/internal/repository/event"
	memberrepo "github.com/torsdagskos/backend/internal/repository/member"
	"github.com/torsdagskos/backend/internal/repository/notiflog"
	rsvprepo "github.com/torsdagskos/backend/internal/repository/rsvp"
	"github.com/torsdagskos/backend/internal/scheduler"
	"github.com/torsdagskos/backend/internal/service/dispatch"
	eventsvc "github.com/torsdagskos/backend/internal/service/event"
	membersvc "github.com/torsdagskos/backend/internal/service/member"
	rsvpsvc "github.com/torsdagskos/backend/internal/service/rsvp"
	"github.com/torsdagskos/backend/pkg/email"
	"github.com/torsdagskos/backend/pkg/webpush"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()
	val := validator.New()

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	dbNum, err := strconv.Atoi(cfg.Redis.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to parse redis database")
	}

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, dbNum)
	if err = rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	civil, err := civiltime.New(cfg.Notify.Zone)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load notification timezone")
	}

	members := memberrepo.NewRepository(db)
	events := eventrepo.NewRepository(db)
	rsvps := rsvprepo.NewRepository(db)
	notifLog := notiflog.NewRepository(db)

	provider := email.New(email.Config{
		Provider: cfg.Email.Provider,
		From:     cfg.Email.From,
		ReplyTo:  cfg.Email.ReplyTo,
		Resend: email.ResendConfig{
			APIKey: cfg.Email.Resend.APIKey,
			APIURL: cfg.Email.Resend.APIURL,
		},
		Mailgun: email.MailgunConfig{
			APIKey: cfg.Email.Mailgun.APIKey,
			Domain: cfg.Email.Mailgun.Domain,
			APIURL: cfg.Email.Mailgun.APIURL,
		},
		SMTP: email.SMTPConfig{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Username: cfg.Email.SMTP.Username,
			Password: cfg.Email.SMTP.Password,
		},
	})

	pushSender := webpush.NewSender(webpush.Config{
		VAPIDPublicKey:  cfg.Push.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.Push.VAPIDPrivateKey,
		Subject:         cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	})

	dispatchSvc := dispatch.NewService(members, events, notifLog, rdb, provider, pushSender, civil, dispatch.Options{
		BaseURL:     cfg.Notify.BaseURL,
		SendTimeout: cfg.Notify.SendTimeout,
		Retry:       cfg.Retry,
	})

	eventService := eventsvc.NewService(events, dispatchSvc, nil)
	rsvpService := rsvpsvc.NewService(events, rsvps, nil)
	memberService := membersvc.NewService(members)

	reminderScheduler := scheduler.New(dispatchSvc, civil, cfg.Reminder.Hour, nil)

	if cfg.Reminder.Internal {
		ticker, err := reminderScheduler.Start(ctx, cfg.Reminder.Schedule)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to start reminder ticker")
		}
		defer ticker.Stop()
	}

	eventHandler := eventhandler.NewHandler(eventService, val, civil)
	rsvpHandler := rsvphandler.NewHandler(memberService, rsvpService, val)
	memberHandler := memberhandler.NewHandler(memberService, val)
	cronHandler := cronhandler.NewHandler(reminderScheduler, cfg.Reminder.CronSecret)

	r := router.New(eventHandler, rsvpHandler, memberHandler, cronHandler)
	s := server.New(cfg.Server.HTTPPort, r)

	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Printf("failed to close master DB: %v", err)
	}

	for i, slave := range db.Slaves {
		if err := slave.Close(); err != nil {
			zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
		}
	}
}
