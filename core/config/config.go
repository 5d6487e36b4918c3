package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"contact-sync/core/database"
	"contact-sync/core/logger"
	"contact-sync/core/reconcile"
	"contact-sync/core/server"
	"contact-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the root configuration. Each section belongs to the package that
// consumes it.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the local record store.
	Database database.Config `mapstructure:"database"`
	// Sync holds the reconciliation settings.
	Sync reconcile.Config `mapstructure:"sync"`
}

// LoadConfig loads configuration from an optional config.yaml in path, the
// .env file in path and environment variables, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	envPath := filepath.Join(path, ".env")

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, reflect.TypeOf(Config{}), "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}

// bindValues registers a default for every mapstructure key of t, walking
// nested structs. Keys must be known to viper before AutomaticEnv can see them,
// so fields without a default tag are registered with an empty value.
func bindValues(v *viper.Viper, t reflect.Type, prefix string) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := range t.NumField() {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, field.Type, name)
			continue
		}
		v.SetDefault(name, field.Tag.Get("default"))
	}
}
