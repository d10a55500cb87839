package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/sigmacheck/sigmacheck/logger"
	"github.com/sigmacheck/sigmacheck/util"

	"github.com/go-playground/validator/v10"
	"github.com/hjson/hjson-go/v4"
	"github.com/spf13/afero"
)

var Version string

const DefaultConfigPath = "./config.hjson"

var errReadingConfigFile = errors.New("encountered an error while reading the config file")

type (
	Config struct {
		Env        Env `json:"env"`
		SigmaCheck
		AlphaSweep    AlphaSweep    `json:"alpha_sweep" validate:"alpha_range=0 100"`
		GoodnessOfFit GoodnessOfFit `json:"goodness_of_fit" validate:"required"`
		Coverage      Coverage      `json:"coverage" validate:"required"`
		SelfCheck     SelfCheck     `json:"selfcheck" validate:"required"`
	}

	Env struct { // set by environment variables
		LogDir string `json:"-" validate:"omitempty,dir"` // SIGMACHECK_LOG_DIR
	}

	SigmaCheck struct {
		UpdateCheckEnabled bool `json:"update_check_enabled" validate:"boolean"`
		// Workers caps the number of concurrent analysis goroutines, 0 selects a CPU based default
		Workers int `json:"workers" validate:"gte=0,lte=1024"`
	}

	// AlphaSweep describes the grid of deviation multipliers used when
	// sweeping confidence interval sizes
	AlphaSweep struct {
		Min   float64 `json:"min" validate:"ltfield=Max"`
		Max   float64 `json:"max"`
		Count int     `json:"count" validate:"gte=2,lte=10000"`
	}

	GoodnessOfFit struct {
		Threshold float64 `json:"threshold" validate:"gt=0"`
	}

	Coverage struct {
		CredibleLevel float64 `json:"credible_level" validate:"gt=0,lt=1"`
	}

	// SelfCheck configures the synthetic trials run by the selfcheck command
	SelfCheck struct {
		Trials     int     `json:"trials" validate:"gte=1,lte=10000"`
		States     int     `json:"states" validate:"gte=2,lte=1000"`
		Replicates int     `json:"replicates" validate:"gte=2,lte=1000000"`
		Misscale   float64 `json:"misscale" validate:"gt=0"`
	}
)

// LoadConfig reads the config file at the given path, falling back to the
// default config when no file exists there. A file that is present but
// cannot be read or parsed is still an error.
func LoadConfig(afs afero.Fs, path string) (*Config, error) {
	exists, err := afero.Exists(afs, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		zlog := logger.GetLogger()
		zlog.Debug().Str("path", path).Msg("no config file found, using the default configuration")

		// an empty document keeps every default while still applying the
		// environment overrides and validation
		var cfg Config
		if err := unmarshal([]byte("{}"), &cfg, nil); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return ReadFileConfig(afs, path)
}

// ReadFileConfig reads and parses the config file at the specified path.
// Unlike LoadConfig, a missing file is an error.
func ReadFileConfig(afs afero.Fs, path string) (*Config, error) {
	// read the config file
	contents, err := util.GetFileContents(afs, path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := unmarshal(contents, &cfg, nil); err != nil {
		return nil, fmt.Errorf("%w, located by default at '%s', please correct the issue in the config and try again:\n\t- %w", errReadingConfigFile, path, err)
	}

	return &cfg, nil
}

// ReadConfigFromMemory reads the config from bytes already read into memory as opposed to reading from a file
// It also provides its own environment struct that must already be completely set
func ReadConfigFromMemory(data []byte, env Env) (*Config, error) {
	var cfg Config
	if err := unmarshal(data, &cfg, &env); err != nil {
		return nil, err
	}
	return &cfg, nil

}

func (c *Config) setEnv() error {
	// the log directory is optional, logs go to the console alone when it is unset
	logDir := os.Getenv("SIGMACHECK_LOG_DIR")
	if logDir != "" {
		logDirFull, err := filepath.Abs(logDir)
		if err != nil {
			return fmt.Errorf("unable to get absolute path to SIGMACHECK_LOG_DIR environment variable: %s, err: %w", logDir, err)
		}
		logDir = logDirFull
	}
	c.Env.LogDir = logDir

	// SIGMACHECK_UPDATE_CHECK=false disables the release check no matter what the config file says
	if enabled, err := strconv.ParseBool(os.Getenv("SIGMACHECK_UPDATE_CHECK")); err == nil && !enabled {
		c.SigmaCheck.UpdateCheckEnabled = false
	}

	return nil
}

// unmarshal unmarshals the data into the config struct, sets the environment variables, and validates the values
func unmarshal(data []byte, cfg *Config, env *Env) error {
	// unmarshal the JSON config file
	if err := hjson.Unmarshal(data, &cfg); err != nil {
		return err
	}

	// set the environment struct
	// this MUST be done before validating the values, because the
	// validation checks for the presence of the environment variables
	if env == nil {
		// set the environment variables from the actual environment
		if err := cfg.setEnv(); err != nil {
			return fmt.Errorf("unable to set environment: %w", err)
		}
	} else {
		// set the environment variables from the provided environment struct
		cfg.Env = *env
	}

	// validate values
	if err := cfg.Validate(); err != nil {
		return err
	}
	return nil
}

// UnmarshalJSON unmarshals the JSON bytes into the config struct
// overrides the default unmarshalling method to allow for custom parsing
func (c *Config) UnmarshalJSON(bytes []byte) error {
	// create temporary config struct to unmarshal into
	// not doing this would result in an infinite unmarshalling loop
	type tmpConfig Config
	defaultCfg := GetDefaultConfig()

	// set the default config to a variable of the temporary type
	tmpCfg := tmpConfig(defaultCfg)

	// unmarshal json into the default config struct
	err := hjson.Unmarshal(bytes, &tmpCfg)
	if err != nil {
		return err
	}

	// set the new config values
	*c = Config(tmpCfg)

	return nil
}

// GetDefaultConfig returns a Config object with default values
func GetDefaultConfig() Config {
	// set version to dev if not set
	if Version == "" {
		Version = "dev"
	}

	// set default config values
	cfg := defaultConfig()

	return cfg
}

// Reset resets the config values to default
// note: Env values are not reset
func (cfg *Config) Reset() error {
	// store the environment values before resetting
	env := cfg.Env

	// get the default config
	newConfig := GetDefaultConfig()

	*cfg = newConfig
	cfg.Env = env

	// validate the config struct
	if err := cfg.Validate(); err != nil {
		return err
	}

	return nil
}

// Validate validates the config struct values
func (cfg *Config) Validate() error {
	zlog := logger.GetLogger()
	zlog.Debug().Interface("config", cfg).Msg("validating config")

	// create a new validator
	validate, err := NewValidator()
	if err != nil {
		return err
	}

	// validate the config struct
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	return nil
}

// NewValidator creates a new validator with custom validation rules
func NewValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	// register custom validation for the alpha sweep bounds
	if err := v.RegisterValidation("alpha_range", func(fl validator.FieldLevel) bool {
		value := fl.Field().Interface().(AlphaSweep)
		// get the param string and parse it into two floats (min and max)
		params := strings.Split(fl.Param(), " ")
		if len(params) != 2 {
			return false
		}
		min, err1 := strconv.ParseFloat(params[0], 64)
		max, err2 := strconv.ParseFloat(params[1], 64)
		if err1 != nil || err2 != nil {
			return false
		}
		err := validateAlphaSweepRange(value, min, max)
		return err == nil
	}); err != nil {
		return nil, err
	}

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		value := sl.Current().Interface().(SelfCheck)
		// a trial allocates replicates * states^2 samples in the matrix case
		samples := int64(value.Replicates) * int64(value.States) * int64(value.States)
		if samples > 100_000_000 {
			sl.ReportError(value, "Replicates", "SelfCheck", "selfcheck_budget", "")
			sl.ReportError(value, "States", "SelfCheck", "selfcheck_budget", "")
		}
	}, SelfCheck{})

	return v, nil
}

// validateAlphaSweepRange validates that the sweep bounds are in range based on the provided min and max values.
// A value of -1 for either min or max indicates the lack of that boundary.
func validateAlphaSweepRange(s AlphaSweep, min float64, max float64) error {
	// validate that the lower bound is in range (if min is provided)
	// the lower bound itself is excluded, a zero multiplier admits every sample
	if min > -1 && s.Min <= min {
		return fmt.Errorf("sweep lower bound must be greater than %g", min)
	}

	// validate that the upper bound is in range (if max is provided)
	if max > -1 && s.Max > max {
		return fmt.Errorf("sweep upper bound must be less than or equal to %g", max)
	}

	return nil
}

// WorkerCount resolves the configured number of analysis workers,
// defaulting to half the available CPUs with a floor of four
func (c *Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	workers := runtime.NumCPU() / 2
	if workers < 4 {
		workers = 4
	}
	return workers
}

// return a copy of the default config object
func defaultConfig() Config {
	return Config{
		SigmaCheck: SigmaCheck{
			UpdateCheckEnabled: true,
			Workers:            0,
		},
		AlphaSweep: AlphaSweep{
			Min:   0.1,
			Max:   4.0,
			Count: 40,
		},
		GoodnessOfFit: GoodnessOfFit{
			Threshold: 4.5,
		},
		Coverage: Coverage{
			CredibleLevel: 0.95,
		},
		SelfCheck: SelfCheck{
			Trials:     25,
			States:     8,
			Replicates: 200,
			Misscale:   1.0,
		},
	}
}
