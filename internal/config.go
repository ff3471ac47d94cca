package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/wikisync/internal/mediawiki"
	"github.com/starford/wikisync/internal/pathcodec"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Project ProjectConfig     `yaml:"project"`
	Remote  RemoteConfig      `yaml:"remote"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Project.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration for serve mode.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// CategoryOverride remaps template title prefixes to folder categories.
type CategoryOverride struct {
	Prefix   string `yaml:"prefix"`
	Category string `yaml:"category"`
}

// ProjectConfig holds the wiki project directory and codec overrides.
type ProjectConfig struct {
	Root               string             `yaml:"root"`
	TemplateCategories []CategoryOverride `yaml:"template_categories"`
}

// Validate validates the project configuration.
func (c *ProjectConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	); err != nil {
		return err
	}
	for _, o := range c.TemplateCategories {
		if o.Prefix == "" || o.Category == "" {
			return fmt.Errorf("project: template category override needs both prefix and category")
		}
	}
	return nil
}

// Categories converts the overrides to the codec's form.
func (c *ProjectConfig) Categories() []pathcodec.PrefixCategory {
	out := make([]pathcodec.PrefixCategory, len(c.TemplateCategories))
	for i, o := range c.TemplateCategories {
		out[i] = pathcodec.PrefixCategory{Prefix: o.Prefix, Category: o.Category}
	}
	return out
}

// RemoteConfig holds the remote wiki API settings. APIURL may be empty for
// purely local usage; sync commands then fail with a clear error.
type RemoteConfig struct {
	APIURL        string    `yaml:"api_url"`
	UserAgent     string    `yaml:"user_agent"`
	Timeout       Duration  `yaml:"timeout"`
	ReadInterval  Duration  `yaml:"read_interval"`
	WriteInterval Duration  `yaml:"write_interval"`
	MaxAttempts   int       `yaml:"max_attempts"`
	RetryDelay    Duration  `yaml:"retry_delay"`
	MaxRetryDelay Duration  `yaml:"max_retry_delay"`
	Bot           BotConfig `yaml:"bot"`
}

// Validate validates the remote configuration.
func (c *RemoteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAttempts, validation.Min(0)),
	)
}

// ClientConfig maps the section onto the API client's configuration.
func (c *RemoteConfig) ClientConfig() mediawiki.Config {
	return mediawiki.Config{
		BaseURL:       c.APIURL,
		UserAgent:     c.UserAgent,
		Timeout:       c.Timeout.Std(),
		ReadInterval:  c.ReadInterval.Std(),
		WriteInterval: c.WriteInterval.Std(),
		MaxAttempts:   c.MaxAttempts,
		RetryDelay:    c.RetryDelay.Std(),
		MaxRetryDelay: c.MaxRetryDelay.Std(),
		Username:      c.Bot.Username,
		Password:      c.Bot.Password,
	}
}

// BotConfig holds the bot account credentials. Typically injected through
// environment expansion, e.g. password: ${WIKI_BOT_PASSWORD}.
type BotConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// AuthConfig holds authentication configuration for the serve-mode API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// Duration is a time.Duration that unmarshals from YAML strings like "250ms".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Project: ProjectConfig{
			Root: ".",
		},
		Remote: RemoteConfig{
			UserAgent:     "wikisync",
			Timeout:       Duration(30 * time.Second),
			ReadInterval:  Duration(250 * time.Millisecond),
			WriteInterval: Duration(2 * time.Second),
			MaxAttempts:   4,
			RetryDelay:    Duration(500 * time.Millisecond),
			MaxRetryDelay: Duration(15 * time.Second),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
