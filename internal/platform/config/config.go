package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrMissingConfig is returned when a required setting is absent.
var ErrMissingConfig = errors.New("missing required configuration")

// Config is the relay's configuration snapshot. Load it once at startup and
// pass it by value; nothing mutates it afterwards.
type Config struct {
	Server  Server
	Client  Client
	Keys    Keys
	Session Session
	Redis   RedisConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"RELAY_ADDR"       envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
}

// Client is the relay's registration with the identity provider.
type Client struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURI  string `env:"REDIRECT_URI"`
	OAuthURI     string `env:"OAUTH_URI"`
	ContentURI   string `env:"CONTENT_URI"`
	ProfileURI   string `env:"PROFILE_URI"`
}

// Keys locates the signing keypair and the session assertion settings.
type Keys struct {
	PublicKeyPath   string        `env:"PUBLIC_KEY_PATH"`
	SecretKeyPath   string        `env:"SECRET_KEY_PATH"`
	Issuer          string        `env:"ISSUER"`
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"1h"`
}

// Session controls the session cookie and its server-side record.
type Session struct {
	CookieDomain string        `env:"COOKIE_DOMAIN"`
	CookiePath   string        `env:"COOKIE_PATH"   envDefault:"/api"`
	CookieSecure bool          `env:"COOKIE_SECURE"`
	TTL          time.Duration `env:"SESSION_TTL"   envDefault:"24h"`
}

// RedisConfig holds Redis connection settings. An empty URL keeps sessions in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
}

// FromEnv parses the process environment.
func FromEnv() (Config, error) {
	return parse(env.Options{})
}

// KeysFromEnv parses only the key settings. Tools that provision keys need
// nothing else and skip the full validation.
func KeysFromEnv() (Keys, error) {
	var keys Keys
	if err := env.Parse(&keys); err != nil {
		return Keys{}, fmt.Errorf("parse env: %w", err)
	}
	return keys, nil
}

// FromMap parses the given variables instead of the process environment.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and well-formed.
func (c Config) Validate() error {
	required := []struct {
		name, value string
	}{
		{"PUBLIC_KEY_PATH", c.Keys.PublicKeyPath},
		{"SECRET_KEY_PATH", c.Keys.SecretKeyPath},
		{"CLIENT_ID", c.Client.ClientID},
		{"CLIENT_SECRET", c.Client.ClientSecret},
		{"REDIRECT_URI", c.Client.RedirectURI},
		{"OAUTH_URI", c.Client.OAuthURI},
		{"CONTENT_URI", c.Client.ContentURI},
		{"PROFILE_URI", c.Client.ProfileURI},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	for name, raw := range map[string]string{
		"REDIRECT_URI": c.Client.RedirectURI,
		"OAUTH_URI":    c.Client.OAuthURI,
		"CONTENT_URI":  c.Client.ContentURI,
		"PROFILE_URI":  c.Client.ProfileURI,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL", name)
		}
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Server.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}
	return nil
}
