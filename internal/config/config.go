package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	// BaseURL is the public storefront URL, used to build the
	// success/cancel redirects baked into checkout sessions.
	BaseURL string `env:"APP_BASE_URL"`

	Database Database `envPrefix:"DATABASE_"`
	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Auth     Auth     `envPrefix:"AUTH_"`
}

type Database struct {
	// ServiceURL is the privileged DSN used by the checkout, webhook
	// and entitlement routes. URL is the restricted tier for public
	// catalog reads; it falls back to ServiceURL when unset.
	ServiceURL string `env:"SERVICE_URL"`
	URL        string `env:"URL"`
}

type Stripe struct {
	SecretKey      string `env:"SECRET_KEY"`
	PublishableKey string `env:"PUBLISHABLE_KEY"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
}

type Auth struct {
	// JWTSecret verifies the identity provider's HS256 access tokens.
	JWTSecret string `env:"JWT_SECRET"`
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

func (d Database) AnonURL() string {
	if d.URL != "" {
		return d.URL
	}
	return d.ServiceURL
}
