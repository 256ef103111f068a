package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"env"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`

	DBPath         string `yaml:"db_path"`
	MigrationsPath string `yaml:"migrations_path"`

	// LogFormat выбирает формат логов конвертации: "text" или "json".
	LogFormat string `yaml:"log_format"`

	Converter ConverterConfig `yaml:"converter"`
}

// ConverterConfig - ограничения одной конвертации.
type ConverterConfig struct {
	MaxItems        int     `yaml:"max_items"`
	MaxSize         float64 `yaml:"max_size"`
	CircleTolerance float64 `yaml:"circle_tolerance"`
}

func Default() *Config {
	return &Config{
		Port:           "3001",
		Environment:    "development",
		ReadTimeout:    10,
		WriteTimeout:   10,
		DBPath:         "data/db/emblems.db",
		MigrationsPath: "migrations/001_init_emblems.sql",
		LogFormat:      "text",
		Converter: ConverterConfig{
			MaxItems:        40,
			MaxSize:         256,
			CircleTolerance: 0.15,
		},
	}
}

// Load собирает конфигурацию из значений по умолчанию, YAML файла из
// CONFIG_FILE (если задан) и переменных окружения; побеждает последний.
func Load() *Config {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			log.Printf("[CONFIG] %v, using defaults", err)
		}
	}

	cfg.applyEnv()
	return cfg
}

// LoadFile накладывает значения из YAML файла path.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.Environment = getEnv("ENV", c.Environment)
	c.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.WriteTimeout)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.MigrationsPath = getEnv("MIGRATIONS_PATH", c.MigrationsPath)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.Converter.MaxItems = getEnvAsInt("MAX_ITEMS", c.Converter.MaxItems)
	c.Converter.MaxSize = getEnvAsFloat("MAX_SIZE", c.Converter.MaxSize)
	c.Converter.CircleTolerance = getEnvAsFloat("CIRCLE_TOLERANCE", c.Converter.CircleTolerance)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
