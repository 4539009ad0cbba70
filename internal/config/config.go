package config

import (
	"os"
	"reflect"
	"strings"

	"identity-service/internal/database"
	"identity-service/internal/logger"
	"identity-service/internal/server"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Database holds configuration for the contact store.
	Database database.Config `mapstructure:"database"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// LoadConfig loads configuration from environment variables and the .env
// file in path, if any.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Missing .env is normal outside development.
	_ = godotenv.Overload(envPath)

	v := viper.New()
	v.SetEnvKeyReplacer(envKeys)
	v.AutomaticEnv()
	if err := registerKeys(v, reflect.TypeOf(Config{}), ""); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if _, ok := os.LookupEnv("DATABASE_DRIVER"); !ok && isPostgresURL(config.Database.URL) {
		config.Database.Driver = database.DriverPostgres
	}

	return &config, nil
}

func isPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

var envKeys = strings.NewReplacer(".", "_")

// registerKeys declares every leaf setting of t to viper. The `default` tag
// becomes the default value, which also makes the key visible to
// AutomaticEnv. An `env` tag lists extra variable names read after the
// canonical one, e.g. PORT for server.port.
func registerKeys(v *viper.Viper, t reflect.Type, prefix string) error {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for _, field := range reflect.VisibleFields(t) {
		name := field.Tag.Get("mapstructure")
		if name == "" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		if field.Type.Kind() == reflect.Struct {
			if err := registerKeys(v, field.Type, key); err != nil {
				return err
			}
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))

		if aliases := field.Tag.Get("env"); aliases != "" {
			names := append([]string{strings.ToUpper(envKeys.Replace(key))}, strings.Split(aliases, ",")...)
			if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
				return err
			}
		}
	}
	return nil
}
