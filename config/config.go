// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Data struct {
		Dir       string `yaml:"dir" default:"./data/tennis_atp" validate:"required"`
		FromYear  int    `yaml:"from_year" default:"2000" validate:"min=1968"`
		ToYear    int    `yaml:"to_year" default:"2024" validate:"gtefield=FromYear"`
	} `yaml:"data"`

	Database struct {
		Path string `yaml:"path" default:"./data/tennis.db" validate:"required"`
	} `yaml:"database"`

	Model struct {
		Path  string `yaml:"path" default:"./models/atp_gbdt.json" validate:"required"`
		Watch bool   `yaml:"watch" default:"true"`
	} `yaml:"model"`

	HTTP struct {
		Port           int      `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		TimeoutSeconds int      `yaml:"timeout_seconds" default:"30" validate:"min=1"`
		AllowedOrigins []string `yaml:"allowed_origins" default:"[\"*\"]"`
	} `yaml:"http"`

	Cache struct {
		Size int `yaml:"size" default:"512" validate:"min=1"`
	} `yaml:"cache"`

	Training struct {
		Estimators   int     `yaml:"estimators" default:"100" validate:"min=1"`
		MaxDepth     int     `yaml:"max_depth" default:"5" validate:"min=1"`
		LearningRate float64 `yaml:"learning_rate" default:"0.1" validate:"gt=0"`
		Folds        int     `yaml:"folds" default:"5" validate:"min=2"`
		TestRatio    float64 `yaml:"test_ratio" default:"0.2" validate:"gt=0,lt=1"`
		Seed         int64   `yaml:"seed" default:"42"`
	} `yaml:"training"`

	Log struct {
		Level      string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb" default:"100"`
		MaxBackups int    `yaml:"max_backups" default:"3"`
	} `yaml:"log"`
}

// Load reads the YAML file at path, fills defaults for unset fields and
// validates the result.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, for tools that
// run without a config file.
func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}
