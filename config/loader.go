// Package config loads the service configuration from a YAML file, an
// optional .env file and the process environment.
//
// Every key of the target struct can be overridden from the environment by
// upper-casing its path and replacing dots with underscores:
// auth.jwt.secret is AUTH_JWT_SECRET, database.dsn is DATABASE_DSN. Lists
// are comma separated (SERVER_CORS_ALLOWED_ORIGINS=a,b).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFiles are tried in order when no file is given explicitly.
var DefaultFiles = []string{
	"cmd/invoicer/config.yml",
	"config.yml",
}

// EnvConfigFile names the variable that can point at the config file.
const EnvConfigFile = "INVOICER_CONFIG"

type options struct {
	file    string
	envFile string
}

// LoaderOption customises LoadConfig.
type LoaderOption func(*options)

// WithConfigFile reads path instead of searching DefaultFiles. A missing
// explicit file is not an error; the environment alone may configure the
// service.
func WithConfigFile(path string) LoaderOption {
	return func(o *options) { o.file = path }
}

// WithEnvFile loads variables from path before binding the environment.
// Variables already set in the process win.
func WithEnvFile(path string) LoaderOption {
	return func(o *options) { o.envFile = path }
}

// LoadConfig fills cfg, a pointer to a struct with mapstructure tags.
// serviceName is only used in error messages.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	o := options{envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := loadEnvFile(o.envFile); err != nil {
		return fmt.Errorf("%s: %w", serviceName, err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file := configFile(o.file); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%s: read %s: %w", serviceName, file, err)
		}
	}

	t := reflect.TypeOf(cfg)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%s: config target must be a pointer to a struct, got %T", serviceName, cfg)
	}
	for _, key := range Keys(t.Elem()) {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("%s: bind %s: %w", serviceName, key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("%s: decode config: %w", serviceName, err)
	}
	return nil
}

// configFile returns the explicit file, the file named by EnvConfigFile, or
// the first of DefaultFiles that exists.
func configFile(explicit string) string {
	if explicit == "" {
		explicit = os.Getenv(EnvConfigFile)
	}
	if explicit != "" {
		if exists(explicit) {
			return explicit
		}
		return ""
	}
	for _, f := range DefaultFiles {
		if exists(f) {
			return f
		}
	}
	return ""
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Keys lists the dotted keys of a config struct as mapstructure sees them.
// Squashed structs contribute their keys at the parent level; fields tagged
// "-" are skipped.
func Keys(t reflect.Type) []string {
	var keys []string
	collectKeys(t, "", &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix string, keys *[]string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, squash := fieldKey(f)
		if name == "-" {
			continue
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if squash && ft.Kind() == reflect.Struct {
			collectKeys(ft, prefix, keys)
			continue
		}

		key := prefix + name
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
			collectKeys(ft, key+".", keys)
			continue
		}
		*keys = append(*keys, key)
	}
}

func fieldKey(f reflect.StructField) (name string, squash bool) {
	tag := f.Tag.Get("mapstructure")
	name, rest, _ := strings.Cut(tag, ",")
	squash = strings.Contains(rest, "squash") || (f.Anonymous && name == "")
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	return name, squash
}
