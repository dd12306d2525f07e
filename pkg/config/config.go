package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/oladoye/sitesync/pkg/model"
)

// Catalog is the configuration for one mirrored catalog
type Catalog struct {
	ID string `toml:"-"`
	// Provider is the catalog client to use ("youtube" or "selar")
	Provider string `toml:"provider"`
	// SourceID is the provider's identifier for the catalog,
	// e.g. a YouTube channel id. Not needed for push-only providers.
	SourceID string `toml:"source_id"`
	// PageSize is the number of candidates requested per poll.
	// NOTE: larger page sizes/often polls might drain your API quota.
	PageSize int `toml:"page_size"`
	// KeepLast bounds the store size; oldest entries are evicted first
	KeepLast int `toml:"keep_last"`
	// CronSchedule is how often to poll. Empty means push only, no polling.
	// NOTE: too often update check might drain your API quota.
	CronSchedule string `toml:"cron_schedule"`
	// Author credited on commerce items that carry no author of their own
	Author string `toml:"author"`
	// StoreURL is the purchase link fallback for commerce items
	StoreURL string `toml:"store_url"`
}

type Tokens struct {
	// YouTube Data API v3 key.
	// See https://developers.google.com/youtube/registering_an_application
	YouTube string `toml:"youtube"`
	// Google AI key for the chat proxy.
	// See https://ai.google.dev/
	GoogleAI string `toml:"google_ai"`
	// Telegram bot token for contact form relay
	TelegramBot string `toml:"telegram_bot"`
	// Shared secret for validating Selar webhook signatures
	SelarWebhookSecret string `toml:"selar_webhook_secret"`
}

type Server struct {
	// Port is a server port to listen to
	Port int `toml:"port"`
	// Bind a specific IP addresses for server
	// "*": bind all IP addresses which is default option
	BindAddress string `toml:"bind_address"`
	// DataDir is a path to a directory to keep catalog JSON files
	DataDir string `toml:"data_dir"`
}

type Chat struct {
	// Model name to use for answers
	Model string `toml:"model"`
}

type Contact struct {
	// TelegramChatID is the chat that receives contact form submissions
	TelegramChatID string `toml:"telegram_chat_id"`
}

type Config struct {
	// Server is the web server configuration
	Server Server `toml:"server"`
	// Catalogs is the set of catalogs mirrored by this app,
	// keyed by store name, e.g. "videos" or "books"
	Catalogs map[string]*Catalog `toml:"catalogs"`
	// Tokens is the credentials for upstream services
	Tokens Tokens `toml:"tokens"`
	// Chat is the AI chat proxy configuration
	Chat Chat `toml:"chat"`
	// Contact is the contact form relay configuration
	Contact Contact `toml:"contact"`
}

// LoadConfig loads TOML configuration from a file path. Values may reference
// environment variables as ${VAR}; a .env file next to the process is picked
// up first, so credentials never need to live in the config file itself.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Config{}
	if _, err := toml.Decode(os.ExpandEnv(string(data)), &config); err != nil {
		return nil, errors.Wrap(err, "failed to load config file")
	}

	for id, catalog := range config.Catalogs {
		catalog.ID = id
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	var result *multierror.Error

	if c.Server.DataDir == "" {
		result = multierror.Append(result, errors.New("data directory is required"))
	}

	if len(c.Catalogs) == 0 {
		result = multierror.Append(result, errors.New("at least one catalog must be specified"))
	}

	for id, catalog := range c.Catalogs {
		if catalog.Provider == "" {
			result = multierror.Append(result, errors.Errorf("provider is required for %q", id))
		}

		if catalog.CronSchedule != "" && catalog.SourceID == "" {
			result = multierror.Append(result, errors.Errorf("source_id is required for polled catalog %q", id))
		}
	}

	return result.ErrorOrNil()
}

func (c *Config) applyDefaults() {
	for _, catalog := range c.Catalogs {
		if catalog.PageSize == 0 {
			catalog.PageSize = model.DefaultPageSize
		}

		if catalog.KeepLast == 0 {
			catalog.KeepLast = model.DefaultKeepLast
		}

		if catalog.Provider == "youtube" && catalog.CronSchedule == "" {
			catalog.CronSchedule = model.DefaultSchedule
		}
	}

	if c.Chat.Model == "" {
		c.Chat.Model = "gemini-pro"
	}
}
