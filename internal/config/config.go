package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	TMDB        TMDBConfig        `mapstructure:"tmdb"`
	IMDB        IMDBConfig        `mapstructure:"imdb"`
	Radarr      ArrConfig         `mapstructure:"radarr"`
	Sonarr      SonarrConfig      `mapstructure:"sonarr"`
	QBittorrent QBittorrentConfig `mapstructure:"qbittorrent"`
	Plex        PlexConfig        `mapstructure:"plex"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// TMDBConfig holds configuration for the TMDB catalog provider.
type TMDBConfig struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	Timeout      int    `mapstructure:"timeout"` // seconds
}

// IMDBConfig holds configuration for the IMDb suggestion provider.
type IMDBConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// ArrConfig holds connection settings shared by Radarr-style services.
type ArrConfig struct {
	URL                    string `mapstructure:"url"`
	APIKey                 string `mapstructure:"api_key"`
	RootFolder             string `mapstructure:"root_folder"`
	QualityProfileStandard int    `mapstructure:"quality_profile_standard"`
	QualityProfileUltra    int    `mapstructure:"quality_profile_ultra"`
	Timeout                int    `mapstructure:"timeout"` // seconds
}

// SonarrConfig extends ArrConfig with Sonarr-specific settings.
type SonarrConfig struct {
	ArrConfig         `mapstructure:",squash"`
	LanguageProfileID int `mapstructure:"language_profile_id"`
}

// QBittorrentConfig holds download queue client configuration.
type QBittorrentConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Timeout  int    `mapstructure:"timeout"` // seconds
}

// PlexConfig holds Plex library refresh configuration.
type PlexConfig struct {
	URL        string   `mapstructure:"url"`
	Token      string   `mapstructure:"token"`
	SectionIDs []string `mapstructure:"section_ids"`
	Timeout    int      `mapstructure:"timeout"` // seconds
}

// SchedulerConfig holds background task configuration.
type SchedulerConfig struct {
	CompletionCron       string `mapstructure:"completion_cron"`
	CompletionRunOnStart bool   `mapstructure:"completion_run_on_start"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.requesterrr")
	}

	v.SetEnvPrefix("REQUESTERRR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; defaults + env vars are enough to run.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8790)

	v.SetDefault("database.path", "./data/requesterrr.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("tmdb.timeout", 15)

	v.SetDefault("imdb.enabled", true)
	v.SetDefault("imdb.base_url", "https://v2.sg.media-imdb.com/suggestion")
	v.SetDefault("imdb.timeout", 10)

	v.SetDefault("radarr.url", "")
	v.SetDefault("radarr.api_key", "")
	v.SetDefault("radarr.root_folder", "")
	v.SetDefault("radarr.quality_profile_standard", 1)
	v.SetDefault("radarr.quality_profile_ultra", 2)
	v.SetDefault("radarr.timeout", 30)

	v.SetDefault("sonarr.url", "")
	v.SetDefault("sonarr.api_key", "")
	v.SetDefault("sonarr.root_folder", "")
	v.SetDefault("sonarr.quality_profile_standard", 1)
	v.SetDefault("sonarr.quality_profile_ultra", 2)
	v.SetDefault("sonarr.language_profile_id", 1)
	v.SetDefault("sonarr.timeout", 30)

	v.SetDefault("qbittorrent.url", "")
	v.SetDefault("qbittorrent.username", "")
	v.SetDefault("qbittorrent.password", "")
	v.SetDefault("qbittorrent.timeout", 30)

	v.SetDefault("plex.url", "")
	v.SetDefault("plex.token", "")
	v.SetDefault("plex.section_ids", []string{})
	v.SetDefault("plex.timeout", 15)

	v.SetDefault("scheduler.completion_cron", "*/2 * * * *")
	v.SetDefault("scheduler.completion_run_on_start", false)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
