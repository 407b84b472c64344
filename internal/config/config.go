package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. Secrets (tokens, API keys)
// never live here; they come from the environment.
type Config struct {
	Game    string        `yaml:"game"`
	RepoDir string        `yaml:"repo_dir"`
	Banner  BannerConfig  `yaml:"banner"`
	Draft   DraftConfig   `yaml:"draft"`
	Discord DiscordConfig `yaml:"discord"`

	StatePath         string `yaml:"state_path"`
	DefaultScreenshot string `yaml:"default_screenshot"`
}

// BannerConfig holds the banner pipeline settings.
type BannerConfig struct {
	Width        int     `yaml:"width"`
	Height       int     `yaml:"height"`
	CropMode     string  `yaml:"crop_mode"`
	LogoPath     string  `yaml:"logo_path"`
	LogoPosition string  `yaml:"logo_position"`
	LogoScale    float64 `yaml:"logo_scale"`
	LogoMargin   int     `yaml:"logo_margin"`

	// Capability switches, resolved once at startup.
	DisableSmartCrop   bool `yaml:"disable_smart_crop"`
	DisableEnhancement bool `yaml:"disable_enhancement"`

	Profile ProfileConfig `yaml:"profile"`
}

// ProfileConfig holds the enhancement tuning parameters.
type ProfileConfig struct {
	SharpenAmount float64 `yaml:"sharpen_amount"`
	SharpenSigma  float64 `yaml:"sharpen_sigma"`
	DenoiseRadius int     `yaml:"denoise_radius"`
	DenoiseSigma  float64 `yaml:"denoise_sigma"`
	ClipLimit     float64 `yaml:"clip_limit"`
	TileGrid      int     `yaml:"tile_grid"`
}

// DraftConfig holds the LLM backend settings.
type DraftConfig struct {
	Backend   string `yaml:"backend"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	OllamaURL string `yaml:"ollama_url"`
}

// DiscordConfig holds the review and announcement channel settings.
type DiscordConfig struct {
	ReviewChannel   string `yaml:"review_channel"`
	AnnounceChannel string `yaml:"announce_channel"`
	PollSeconds     int    `yaml:"poll_seconds"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Game:    "Untitled Game",
		RepoDir: ".",
		Banner: BannerConfig{
			Width:        800,
			Height:       450,
			CropMode:     "smart",
			LogoPosition: "bottom-right",
			LogoScale:    0.2,
			LogoMargin:   16,
			Profile: ProfileConfig{
				SharpenAmount: 0.6,
				SharpenSigma:  2.0,
				DenoiseRadius: 2,
				DenoiseSigma:  25,
				ClipLimit:     2.0,
				TileGrid:      8,
			},
		},
		Draft: DraftConfig{
			Backend:   "openai",
			Model:     "gpt-4o-mini",
			OllamaURL: "http://localhost:11434",
		},
		Discord: DiscordConfig{
			PollSeconds: 15,
		},
		StatePath: "wishlistops_state.json",
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Game == "" {
		return fmt.Errorf("game must be set")
	}
	if c.RepoDir == "" {
		return fmt.Errorf("repo_dir must be set")
	}
	if c.Banner.Width < 1 || c.Banner.Height < 1 {
		return fmt.Errorf("banner size %dx%d must be positive", c.Banner.Width, c.Banner.Height)
	}
	if c.Banner.LogoScale < 0 || c.Banner.LogoScale > 1 {
		return fmt.Errorf("banner.logo_scale must be between 0 and 1")
	}
	if c.Banner.LogoMargin < 0 {
		return fmt.Errorf("banner.logo_margin must not be negative")
	}
	if c.Banner.Profile.TileGrid < 1 {
		return fmt.Errorf("banner.profile.tile_grid must be positive")
	}
	switch c.Draft.Backend {
	case "openai", "ollama":
	default:
		return fmt.Errorf("draft.backend must be openai or ollama, got %q", c.Draft.Backend)
	}
	if c.Discord.PollSeconds < 1 {
		return fmt.Errorf("discord.poll_seconds must be positive")
	}
	return nil
}
