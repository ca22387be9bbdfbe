package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Media    MediaConfig    `yaml:"media"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects the key-value backend behind the document store.
// Driver is one of "memory", "file", "redis", "mysql".
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	KeyPrefix string `yaml:"key_prefix"`
	Dir       string `yaml:"dir"`
}

type DatabaseConfig struct {
	MySQL MySQLConfig `yaml:"mysql"`
	Redis RedisConfig `yaml:"redis"`
}

type MySQLConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type AIConfig struct {
	Text  TextConfig  `yaml:"text"`
	Image ImageConfig `yaml:"image"`
}

type TextConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ImageConfig configures the image backend. Provider is "openai" or "comfyui".
type ImageConfig struct {
	Provider       string        `yaml:"provider"`
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	HealthInterval time.Duration `yaml:"health_interval"`
	ComfyUI        ComfyUIConfig `yaml:"comfyui"`
}

type ComfyUIConfig struct {
	Checkpoint   string        `yaml:"checkpoint"`
	Steps        int           `yaml:"steps"`
	CFGScale     float64       `yaml:"cfg_scale"`
	SamplerName  string        `yaml:"sampler_name"`
	Scheduler    string        `yaml:"scheduler"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// MediaConfig controls where generated images are written. An empty Dir
// keeps images inline as data URIs.
type MediaConfig struct {
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
}

// DefaultsConfig seeds the workspace config of new projects.
type DefaultsConfig struct {
	Title       string `yaml:"title"`
	Style       string `yaml:"style"`
	Genre       string `yaml:"genre"`
	AspectRatio string `yaml:"aspect_ratio"`
	SceneCount  int    `yaml:"scene_count"`
	StoryLength string `yaml:"story_length"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	apiKey := os.Getenv("HAKAWATI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey != "" {
		c.AI.Text.APIKey = apiKey
		c.AI.Image.APIKey = apiKey
	}
	if driver := os.Getenv("HAKAWATI_STORAGE_DRIVER"); driver != "" {
		c.Storage.Driver = driver
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		c.Database.Redis.Password = pw
	}
	if pw := os.Getenv("MYSQL_PASSWORD"); pw != "" {
		c.Database.MySQL.Password = pw
	}
}

// Validate fills defaults and rejects values the studio cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = "file"
	case "memory", "file", "redis", "mysql":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "file" && c.Storage.Dir == "" {
		c.Storage.Dir = "./data/store"
	}

	if c.AI.Text.Model == "" {
		c.AI.Text.Model = "gpt-4o-mini"
	}
	if c.AI.Text.Temperature == 0 {
		c.AI.Text.Temperature = 0.8
	}
	if c.AI.Text.Timeout == 0 {
		c.AI.Text.Timeout = 120 * time.Second
	}

	switch c.AI.Image.Provider {
	case "":
		c.AI.Image.Provider = "openai"
	case "openai", "comfyui":
	default:
		return fmt.Errorf("unknown image provider %q", c.AI.Image.Provider)
	}
	if c.AI.Image.Timeout == 0 {
		c.AI.Image.Timeout = 300 * time.Second
	}
	if c.AI.Image.MaxConcurrency == 0 {
		c.AI.Image.MaxConcurrency = 2
	}
	if c.AI.Image.HealthInterval == 0 {
		c.AI.Image.HealthInterval = time.Minute
	}
	if c.AI.Image.Provider == "openai" && c.AI.Image.Model == "" {
		c.AI.Image.Model = "dall-e-3"
	}

	if c.Media.URLPrefix == "" {
		c.Media.URLPrefix = "/media"
	}

	if c.Defaults.Title == "" {
		c.Defaults.Title = "قصة غير معنونة"
	}
	if c.Defaults.AspectRatio == "" {
		c.Defaults.AspectRatio = "16:9"
	}
	if c.Defaults.SceneCount == 0 {
		c.Defaults.SceneCount = 5
	}
	if c.Defaults.StoryLength == "" {
		c.Defaults.StoryLength = "متوسطة (Medium - 6 scenes)"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return nil
}
