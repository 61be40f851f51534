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

	accounthandler "github.com/avoronov/notigate/internal/api/handlers/account"
	authhandler "github.com/avoronov/notigate/internal/api/handlers/auth"
	notifyhandler "github.com/avoronov/notigate/internal/api/handlers/notify"
	"github.com/avoronov/notigate/internal/api/router"
	"github.com/avoronov/notigate/internal/api/server"
	"github.com/avoronov/notigate/internal/bot"
	"github.com/avoronov/notigate/internal/config"
	"github.com/avoronov/notigate/internal/model"
	notifrepo "github.com/avoronov/notigate/internal/repository/notification"
	userrepo "github.com/avoronov/notigate/internal/repository/user"
	authsvc "github.com/avoronov/notigate/internal/service/auth"
	"github.com/avoronov/notigate/internal/service/dispatch"
	"github.com/avoronov/notigate/internal/session"
	"github.com/avoronov/notigate/pkg/email"
	"github.com/avoronov/notigate/pkg/sms"
	"github.com/avoronov/notigate/pkg/telegram"
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

	smtpPort, err := strconv.Atoi(cfg.Email.SMTPPort)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to parse email smtp port")
	}

	emailClient := email.NewClient(
		cfg.Email.SMTPHost,
		smtpPort,
		cfg.Email.Username,
		cfg.Email.Password,
		cfg.Email.From,
	)
	smsClient := sms.NewClient(cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber)
	telegramClient := telegram.NewClient(cfg.Telegram.Token)

	senders := map[model.Channel]dispatch.Sender{
		model.ChannelEmail:    emailClient,
		model.ChannelSMS:      smsClient,
		model.ChannelTelegram: telegramClient,
	}

	users := userrepo.NewRepository(db)
	notifications := notifrepo.NewRepository(db)
	sessions := session.NewStore(rdb, cfg.Auth.SessionTTL, cfg.Retry)

	authService := authsvc.NewService(users)
	dispatchService := dispatch.NewService(notifications, senders, cfg.Notify.ChannelTimeout)

	authHandler := authhandler.NewHandler(authService, sessions, val, cfg)
	accountHandler := accounthandler.NewHandler(authService, notifications, val)
	notifyHandler := notifyhandler.NewHandler(dispatchService, authService, val)

	b := bot.New(telegramClient, authService, cfg.Auth.LoginURL, cfg.Telegram.PollTimeout)
	go b.Run(ctx)

	r := router.New(authHandler, accountHandler, notifyHandler, sessions)
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
