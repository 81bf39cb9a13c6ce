package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/config"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/logging"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/notify"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/ports"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/postgres"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/repository/sqlite"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/service"
	transport "github.com/njprem/Auth_QR_OTP_BackEnd/internal/transport/http"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/transport/kafka"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/transport/mail"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/transport/sms"
	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

type stores struct {
	db    *sqlx.DB
	users ports.UserRepository
	codes ports.OneTimeCodeRepository
	qr    ports.QRSessionRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLogger, err := logging.New(cfg.AppEnv, cfg.LogstashTCPAddr)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closeLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		closeLogger()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.db.Close()

	notifier, closeNotifier, err := newNotifier(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	sender, closeSender := newSender(cfg, logger)
	defer closeSender()

	jwt := util.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL, cfg.JWTLeeway)
	sessions := service.NewSessionIssuer(jwt)
	otp := service.NewOTPEngine(st.codes, sender, logger, service.OTPEngineConfig{
		TTL:             cfg.OTPTTL,
		Length:          cfg.OTPLength,
		DeliveryTimeout: cfg.OTPDeliveryTimeout,
	})
	auth := service.NewAuthService(st.users, util.NewPasswordHasher(util.DefaultArgon2Params), otp, sessions, logger, service.AuthServiceConfig{
		PhoneNumberLength: cfg.PhoneNumberLength,
		PasswordMinLength: cfg.PasswordMinLength,
		ExposeOTP:         cfg.OTPExposeCode,
	})
	qr := service.NewQRService(st.qr, st.users, notifier, logger, service.QRServiceConfig{
		TTL:         cfg.QRTTL,
		MaxPollWait: cfg.QRMaxPollWait,
	})
	if cfg.OTPExposeCode && cfg.IsProduction() {
		logger.Warn("OTP_EXPOSE_CODE is enabled in production")
	}

	e := transport.NewRouter(transport.RouterConfig{
		AllowOrigins: cfg.AllowOrigins,
		Logger:       logger,
		Sessions:     sessions,
	})
	cookies := transport.NewCookieConfig(cfg.IsProduction())
	transport.RegisterAuth(e, auth, qr, sessions, cookies, logger)
	transport.RegisterUsers(e, auth, logger)
	transport.RegisterSwagger(e, "docs", logger)
	if !cfg.IsProduction() {
		transport.RegisterPages(e)
	}

	// Long-polled claims hold the response open for up to QR_MAX_POLL_WAIT.
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.WriteTimeout = cfg.QRMaxPollWait + 15*time.Second
	e.Server.IdleTimeout = 2 * time.Minute
	addr := ":" + cfg.Port

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.QRMaxPollWait+5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("using sqlite store", zap.String("path", cfg.SQLitePath))
		return &stores{
			db:    db,
			users: sqlite.NewUserRepo(db),
			codes: sqlite.NewOneTimeCodeRepo(db),
			qr:    sqlite.NewQRSessionRepo(db),
		}, nil
	default:
		db, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if cfg.RunMigrations {
			if err := postgres.Migrate(ctx, db, logger); err != nil {
				_ = db.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
			logger.Info("postgres migrations applied")
		}
		return &stores{
			db:    db,
			users: postgres.NewUserRepo(db),
			codes: postgres.NewOneTimeCodeRepo(db),
			qr:    postgres.NewQRSessionRepo(db),
		}, nil
	}
}

func newNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) (ports.QRNotifier, func(), error) {
	if cfg.QRNotifier != "redis" {
		return notify.NewMemoryNotifier(), func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("using redis qr notifier", zap.String("addr", cfg.RedisAddr))
	return notify.NewRedisNotifier(client, "", logger), func() { _ = client.Close() }, nil
}

func newSender(cfg config.Config, logger *zap.Logger) (ports.OTPSender, func()) {
	switch cfg.OTPSender {
	case "sms":
		return sms.NewTwilioSender(sms.TwilioConfig{
			BaseURL:    cfg.SMSBaseURL,
			AccountSID: cfg.SMSAccountSID,
			AuthToken:  cfg.SMSAuthToken,
			From:       cfg.SMSFrom,
		}, nil, logger), func() {}
	case "email":
		return mail.NewOTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom, cfg.SMTPUseTLS), func() {}
	case "kafka":
		publisher := kafka.NewOTPPublisher(cfg.KafkaBrokers, cfg.KafkaOTPTopic, logger)
		return publisher, func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("close kafka writer", zap.Error(err))
			}
		}
	default:
		return sms.NewLogSender(logger), func() {}
	}
}
