/*
config.go - Server configuration

PURPOSE:
  Collects settings from, in increasing precedence:
    1. built-in defaults
    2. a .env file (optional, via godotenv)
    3. process environment
    4. command-line flags (-port, -db, -env)

ENVIRONMENT:
  VACATION_PORT          HTTP port (default 8080)
  VACATION_DB            SQLite path, ":memory:" allowed (default vacations.db)
  VACATION_LOG_LEVEL     logrus level (default info)
  VACATION_LOG_FORMAT    text | json (default text)
  VACATION_REGION        Brazilian state code for holidays (default SP)
  VACATION_ANNUAL_CAP    vacation day budget per employee (default 30)
  VACATION_CORS_ORIGINS  comma separated allowed origins (default *)
*/
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port        int      `validate:"min=1,max=65535"`
	DBPath      string   `validate:"required"`
	LogLevel    string   `validate:"oneof=trace debug info warn error"`
	LogFormat   string   `validate:"oneof=text json"`
	Region      string   `validate:"required,len=2,alpha"`
	AnnualCap   int      `validate:"min=1,max=366"`
	CORSOrigins []string `validate:"min=1,dive,required"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:        8080,
		DBPath:      "vacations.db",
		LogLevel:    "info",
		LogFormat:   "text",
		Region:      "SP",
		AnnualCap:   30,
		CORSOrigins: []string{"*"},
	}
}

// Load builds the configuration from args (usually os.Args[1:]).
func Load(args []string) (Config, error) {
	cfg := Default()

	fsFlags := flag.NewFlagSet("server", flag.ContinueOnError)
	port := fsFlags.Int("port", 0, "HTTP server port")
	dbPath := fsFlags.String("db", "", "SQLite database path")
	envFile := fsFlags.String("env", ".env", "dotenv file to load if present")
	if err := fsFlags.Parse(args); err != nil {
		return cfg, err
	}

	if err := godotenv.Load(*envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load %s: %w", *envFile, err)
		}
		logrus.WithField("file", *envFile).Debug("no dotenv file, using process environment")
	}

	cfg.Port = getEnvAsInt("VACATION_PORT", cfg.Port)
	cfg.DBPath = getEnv("VACATION_DB", cfg.DBPath)
	cfg.LogLevel = strings.ToLower(getEnv("VACATION_LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getEnv("VACATION_LOG_FORMAT", cfg.LogFormat))
	cfg.Region = strings.ToUpper(getEnv("VACATION_REGION", cfg.Region))
	cfg.AnnualCap = getEnvAsInt("VACATION_ANNUAL_CAP", cfg.AnnualCap)
	cfg.CORSOrigins = getEnvAsList("VACATION_CORS_ORIGINS", cfg.CORSOrigins)

	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ConfigureLogging applies level and formatter to the standard logrus logger.
func (c Config) ConfigureLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(name string, defaultVal int) int {
	valStr := getEnv(name, "")
	if val, err := strconv.Atoi(valStr); err == nil {
		return val
	}
	if valStr != "" {
		logrus.WithField("key", name).Warnf("ignoring non-integer value %q", valStr)
	}
	return defaultVal
}

func getEnvAsList(name string, defaultVal []string) []string {
	valStr := getEnv(name, "")
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
