package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration, loaded from the environment.
type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ListenAddr          string        `env:"PASSAGE_LISTEN_ADDR" envDefault:":8080"`
	DatabaseFile        string        `env:"PASSAGE_DATABASE_FILE" envDefault:"passage.db"`
	PepperFile          string        `env:"PASSAGE_PEPPER_FILE" envDefault:"pepper"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingEvery   time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`

	// Token signing
	Issuer          string        `env:"PASSAGE_ISSUER" envDefault:"passage"`
	Algorithm       string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	Secret          string        `env:"JWT_SECRET"`
	KeyFile         string        `env:"JWT_KEY_FILE"`
	KeyID           string        `env:"JWT_KID" envDefault:"passage-1"`
	ClaimsNamespace string        `env:"JWT_CLAIMS_NAMESPACE,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	TicketTTL       time.Duration `env:"TICKET_TTL" envDefault:"60m"`

	// Claims projection
	DefaultRole   string   `env:"DEFAULT_ROLE" envDefault:"user"`
	AnonymousRole string   `env:"ANONYMOUS_ROLE" envDefault:"anonymous"`
	CustomFields  []string `env:"JWT_CUSTOM_FIELDS" envSeparator:","`

	// Feature gates
	VerifyEmails        bool `env:"VERIFY_EMAILS" envDefault:"true"`
	LostPasswordEnabled bool `env:"LOST_PASSWORD_ENABLED" envDefault:"true"`
	MFAEnabled          bool `env:"MFA_ENABLED" envDefault:"true"`
	SMSMFAEnabled       bool `env:"SMS_MFA_ENABLED" envDefault:"false"`
	AllowDeletion       bool `env:"ALLOW_ACCOUNT_DELETION" envDefault:"false"`

	// Mail transport. An empty SMTPAddr means outgoing mail is logged
	// instead of sent, which is what you want in dev.
	SMTPAddr     string `env:"SMTP_ADDR"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@localhost"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// Cookie transport
	CookieDomain string `env:"COOKIE_DOMAIN"`
	CookieSecure bool   `env:"COOKIE_SECURE" envDefault:"true"`
}

// LoadConfig parses the environment into a Config and validates the parts
// env tags can't express.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Algorithm {
	case "HS256":
		if c.Secret == "" {
			return errors.New("JWT_SECRET is required for HS256")
		}
	case "RS256", "EdDSA":
		// Key material is loaded or generated at startup; nothing to
		// check here.
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.Algorithm)
	}
	return nil
}
