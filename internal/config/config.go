package config

import (
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	Database    Database
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	RunLocal    bool   `env:"RUN_LOCAL" envDefault:"false"`
	SeedCatalog bool   `env:"SEED_CATALOG" envDefault:"false"`

	Stripe    Stripe    `envPrefix:"STRIPE_"`
	Brevo     Brevo     `envPrefix:"BREVO_"`
	Admin     Admin     `envPrefix:"ADMIN_"`
	AWS       AWS       `envPrefix:"AWS_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
}

type Stripe struct {
	BaseApiURL       string          `env:"BASE_API_URL" envDefault:"https://api.stripe.com"`
	SecretKey        string          `env:"SECRET_KEY"`
	WebhookSecret    string          `env:"WEBHOOK_SECRET"`
	WebhookTolerance time.Duration   `env:"WEBHOOK_TOLERANCE" envDefault:"5m"`
	Currency         string          `env:"CURRENCY" envDefault:"usd"`
	ServiceFee       decimal.Decimal `env:"SERVICE_FEE" envDefault:"4.99"`
}

type Brevo struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.brevo.com"`
	APIKey     string `env:"API_KEY"`
	FromEmail  string `env:"FROM_EMAIL" envDefault:"gifts@giftaihub.com"`
	FromName   string `env:"FROM_NAME" envDefault:"GiftAI Hub"`
}

type Admin struct {
	JWTSecret string        `env:"JWT_SECRET"`
	Issuer    string        `env:"JWT_ISSUER" envDefault:"giftaihub"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
}

type AWS struct {
	Region             string `env:"REGION" envDefault:"us-east-1"`
	EmailRetryQueueURL string `env:"EMAIL_RETRY_QUEUE_URL"`
	MetricsNamespace   string `env:"METRICS_NAMESPACE"`
}

type RateLimit struct {
	RPS   float64 `env:"RPS" envDefault:"1"`
	Burst int     `env:"BURST" envDefault:"5"`
}

type Database struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"mysql"` // mysql, sqlite
	URL    string `env:"DATABASE_URL"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

// AWSEnabled reports whether any AWS-backed component is configured.
func (c *Config) AWSEnabled() bool {
	return c.AWS.EmailRetryQueueURL != "" || c.AWS.MetricsNamespace != ""
}
