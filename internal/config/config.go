package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Engine  EngineConfig  `yaml:"engine"`
	Storage StorageConfig `yaml:"storage"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" env:"JAMOVEO_HOST"`
	Port           int      `yaml:"port" env:"JAMOVEO_PORT"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"JAMOVEO_ALLOWED_ORIGINS" envSeparator:","`
}

type AuthConfig struct {
	// JWTSecret verifies tokens minted by the auth service. Env only in
	// production; the yaml field exists for local development.
	JWTSecret string `yaml:"jwt_secret" env:"JAMOVEO_JWT_SECRET"`
}

type EngineConfig struct {
	SendBuffer     int      `yaml:"send_buffer"`
	IdleTimeout    Duration `yaml:"session_idle_timeout"`
	EndedRetention Duration `yaml:"ended_retention"`
	SweepInterval  Duration `yaml:"sweep_interval"`
	MaxConnections int      `yaml:"max_connections"` // 0 = unlimited
}

// Duration unmarshals yaml values like "30m" or "2h"; yaml.v3 cannot
// decode those into a bare time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type StorageConfig struct {
	Path string `yaml:"path" env:"JAMOVEO_DB_PATH"`
}

// Load reads the yaml file at path, then applies environment overrides.
// A missing file is not an error: defaults plus env must be enough to
// boot.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Engine: EngineConfig{
			SendBuffer:     64,
			IdleTimeout:    Duration(2 * time.Hour),
			EndedRetention: Duration(10 * time.Minute),
			SweepInterval:  Duration(time.Minute),
		},
		Storage: StorageConfig{
			Path: "jamoveo.db",
		},
	}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}
