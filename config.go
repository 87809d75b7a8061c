package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// defaultTimezone is the locale used when none is configured.
	defaultTimezone = "UTC"
	// defaultCutoffHour is the report cutoff hour used when none is configured.
	defaultCutoffHour = 20
	// defaultReloadInterval is the feed reload interval used when none is configured.
	defaultReloadInterval = "1m"
)

// Config is the configuration struct for the service.
type Config struct {
	// FeedPath is the filepath to the price feed.
	FeedPath string
	// Timezone is the locale used for feed timestamps and the report cutoff.
	Timezone string
	// CutoffHour is the local hour after which the current day is settled.
	CutoffHour int
	// ReloadInterval is the interval between feed reloads, in duration form.
	ReloadInterval string
	// DatabaseEndpoint represents the database connection endpoint.
	DatabaseEndpoint string
	// DatabaseUser is the database user.
	DatabaseUser string
	// DatabasePass is the database user pass.
	DatabasePass string

	registeredFlags map[string]bool
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.FeedPath == "" {
		errs = errors.Join(errs, fmt.Errorf("feed path cannot be an empty string"))
	}
	if cfg.CutoffHour < 1 || cfg.CutoffHour > 23 {
		errs = errors.Join(errs, fmt.Errorf("cutoff hour must be in [1,23], got %d", cfg.CutoffHour))
	}
	if cfg.DatabaseEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be an empty string"))
	}

	interval, err := time.ParseDuration(cfg.ReloadInterval)
	switch {
	case err != nil:
		errs = errors.Join(errs, fmt.Errorf("parsing reload interval: %v", err))
	case interval <= 0:
		errs = errors.Join(errs, fmt.Errorf("reload interval must be positive, got %s", interval))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("feedpath", &cfg.FeedPath, "the filepath to the price feed")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("timezone", &cfg.Timezone, "the locale for feed timestamps and the report cutoff")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("cutoffhour", &cfg.CutoffHour, "the local hour after which the day is settled")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("reloadinterval", &cfg.ReloadInterval, "the interval between feed reloads")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbendpoint", &cfg.DatabaseEndpoint, "the database connection endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbuser", &cfg.DatabaseUser, "the database user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbpass", &cfg.DatabasePass, "the database user pass")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	// Apply defaults for optional settings left unset. A zero cutoff hour is
	// treated as unset, midnight cutoffs are not supported.
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.CutoffHour == 0 {
		cfg.CutoffHour = defaultCutoffHour
	}
	if cfg.ReloadInterval == "" {
		cfg.ReloadInterval = defaultReloadInterval
	}

	return cfg.Validate()
}
