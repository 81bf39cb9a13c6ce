package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/njprem/Auth_QR_OTP_BackEnd/internal/util"
)

type Config struct {
	AppEnv        string   `env:"APP_ENV" envDefault:"development"`
	Port          string   `env:"PORT" envDefault:"8080"`
	StoreDriver   string   `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string   `env:"DATABASE_URL"`
	SQLitePath    string   `env:"SQLITE_PATH" envDefault:"auth.db"`
	RunMigrations bool     `env:"RUN_MIGRATIONS" envDefault:"true"`
	AllowOrigins  []string `env:"ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer   string        `env:"JWT_ISSUER" envDefault:"auth-qr-otp"`
	JWTAudience string        `env:"JWT_AUDIENCE" envDefault:"auth-qr-otp-web"`
	JWTLeeway   time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"1h"`

	LogstashTCPAddr string `env:"LOGSTASH_TCP_ADDR"`

	OTPTTL             time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPLength          int           `env:"OTP_LENGTH" envDefault:"6"`
	OTPExposeCode      bool          `env:"OTP_EXPOSE_CODE" envDefault:"false"`
	OTPSender          string        `env:"OTP_SENDER" envDefault:"log"`
	OTPDeliveryTimeout time.Duration `env:"OTP_DELIVERY_TIMEOUT" envDefault:"10s"`

	QRTTL         time.Duration `env:"QR_TTL" envDefault:"5m"`
	QRMaxPollWait time.Duration `env:"QR_MAX_POLL_WAIT" envDefault:"25s"`
	QRNotifier    string        `env:"QR_NOTIFIER" envDefault:"memory"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	PhoneNumberLength int `env:"PHONE_NUMBER_LENGTH" envDefault:"10"`
	PasswordMinLength int `env:"PASSWORD_MIN_LENGTH" envDefault:"6"`

	SMSBaseURL    string `env:"SMS_BASE_URL" envDefault:"https://api.twilio.com"`
	SMSAccountSID string `env:"SMS_ACCOUNT_SID"`
	SMSAuthToken  string `env:"SMS_AUTH_TOKEN"`
	SMSFrom       string `env:"SMS_FROM"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPUseTLS   bool   `env:"SMTP_USE_TLS" envDefault:"false"`

	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaOTPTopic string   `env:"KAFKA_OTP_TOPIC" envDefault:"auth.otp"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("config: JWT_SECRET must not be blank")
	}
	switch c.StoreDriver {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
	case "sqlite":
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.OTPSender {
	case "log", "sms", "email", "kafka":
	default:
		return fmt.Errorf("config: unknown OTP_SENDER %q", c.OTPSender)
	}
	switch c.QRNotifier {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown QR_NOTIFIER %q", c.QRNotifier)
	}
	if c.OTPSender == "kafka" && len(c.KafkaBrokers) == 0 {
		return errors.New("config: KAFKA_BROKERS is required for the kafka OTP sender")
	}
	if c.OTPSender == "sms" && (c.SMSAccountSID == "" || c.SMSAuthToken == "" || c.SMSFrom == "") {
		return errors.New("config: SMS_ACCOUNT_SID, SMS_AUTH_TOKEN and SMS_FROM are required for the sms OTP sender")
	}
	if c.OTPSender == "email" && (c.SMTPHost == "" || c.SMTPFrom == "") {
		return errors.New("config: SMTP_HOST and SMTP_FROM are required for the email OTP sender")
	}
	if c.OTPLength < util.MinOTPDigits || c.OTPLength > util.MaxOTPDigits {
		return fmt.Errorf("config: OTP_LENGTH must be between %d and %d", util.MinOTPDigits, util.MaxOTPDigits)
	}
	if c.PhoneNumberLength <= 0 || c.PasswordMinLength <= 0 {
		return errors.New("config: PHONE_NUMBER_LENGTH and PASSWORD_MIN_LENGTH must be positive")
	}
	return nil
}
