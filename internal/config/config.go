package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Token           string   `env:"TOKEN"`
	GuildID         string   `env:"GUILD_ID"`
	AdminIDs        []string `env:"ADMIN_IDS" envSeparator:","`
	NotifyChannelID string   `env:"NOTIFY_CHANNEL_ID"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"rotabot.db"`

	Timezone      string `env:"TIMEZONE" envDefault:"Europe/Moscow"`
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"ru"`
	TemplatesFile string `env:"TEMPLATES_FILE"`

	MaterializeCron    string        `env:"MATERIALIZE_CRON" envDefault:"5 0 * * 1"`
	ReaperCron         string        `env:"REAPER_CRON" envDefault:"*/10 * * * *"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	StrictTimeFormat   bool          `env:"STRICT_TIME_FORMAT" envDefault:"true"`
	NotifyQueueSize    int           `env:"NOTIFY_QUEUE_SIZE" envDefault:"64"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`

	location *time.Location
	admins   map[string]struct{}
}

// Options ajuste le chargement (fichier .env, mode console).
type Options struct {
	EnvFile string
	// Console relâche les exigences propres à Discord (TOKEN, GUILD_ID).
	Console bool
}

// Load charge la configuration depuis les variables d'environnement et la valide.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", opts.EnvFile, err)
		}
	} else {
		// .env est optionnel lorsque les variables sont fournies par l'environnement (Docker, CI, etc.).
		_ = godotenv.Load()
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.validate(opts.Console); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate applique toutes les règles sur la configuration chargée.
func (c *Config) validate(console bool) error {
	if !console {
		if strings.TrimSpace(c.Token) == "" {
			return fmt.Errorf("config: TOKEN is required")
		}
		if err := snowflake("GUILD_ID", c.GuildID, false); err != nil {
			return err
		}
		if err := snowflake("NOTIFY_CHANNEL_ID", c.NotifyChannelID, true); err != nil {
			return err
		}
	}

	c.admins = make(map[string]struct{}, len(c.AdminIDs))
	ids := c.AdminIDs[:0]
	for _, id := range c.AdminIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if err := snowflake("ADMIN_IDS", id, false); err != nil && !console {
			return err
		}
		c.admins[id] = struct{}{}
		ids = append(ids, id)
	}
	c.AdminIDs = ids

	switch c.StorageDriver {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			// Valeur par défaut utile en local lorsque DATABASE_URL n'est pas fournie.
			c.DatabaseURL = "postgres://localhost:5432/rotabot?sslmode=disable"
		}
		parsed, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("config: invalid DATABASE_URL (%q): %w", c.DatabaseURL, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config: invalid DATABASE_URL (%q): missing scheme or host", c.DatabaseURL)
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("config: SQLITE_PATH is required with STORAGE_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("config: STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.StorageDriver)
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("config: invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, spec := range map[string]string{"MATERIALIZE_CRON": c.MaterializeCron, "REAPER_CRON": c.ReaperCron} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", name, spec, err)
		}
	}

	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("config: SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.NotifyQueueSize <= 0 {
		return fmt.Errorf("config: NOTIFY_QUEUE_SIZE must be positive")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

func snowflake(name, v string, optional bool) error {
	if strings.TrimSpace(v) == "" {
		if optional {
			return nil
		}
		return fmt.Errorf("config: %s is required", name)
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return fmt.Errorf("config: %s must be a Discord id (digits only)", name)
		}
	}
	return nil
}

// Location is the timezone weeks are evaluated in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsAdmin reports whether userID is one of ADMIN_IDS.
func (c *Config) IsAdmin(userID string) bool {
	_, ok := c.admins[userID]
	return ok
}

// Level parses LOG_LEVEL.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", c.LogLevel)
	}
	return lvl, nil
}
