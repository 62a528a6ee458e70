package c64

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds system-level knobs that are legitimately configuration
// rather than emulated hardware state.
type Config struct {
	Region                     string // "PAL" or "NTSC"
	ClockHz                    float64
	BreakOnUnimplementedOpcode bool
	LogLevel                   string
}

func defaultConfig() Config {
	return Config{
		Region:                     "PAL",
		ClockHz:                    clockHzPAL,
		BreakOnUnimplementedOpcode: false,
		LogLevel:                   "info",
	}
}

// LoadConfig reads system configuration from path (any format viper
// supports by extension — YAML, TOML, JSON). Environment variables
// prefixed C64_ override values from the file, and the documented
// defaults apply to keys set in neither.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	cfg := defaultConfig()

	v.SetDefault("region", cfg.Region)
	v.SetDefault("clockhz", cfg.ClockHz)
	v.SetDefault("breakonunimplementedopcode", cfg.BreakOnUnimplementedOpcode)
	v.SetDefault("loglevel", cfg.LogLevel)

	v.SetEnvPrefix("C64")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("c64: loading config %q: %w", path, err)
		}
	}

	cfg.Region = v.GetString("region")
	cfg.ClockHz = v.GetFloat64("clockhz")
	cfg.BreakOnUnimplementedOpcode = v.GetBool("breakonunimplementedopcode")
	cfg.LogLevel = v.GetString("loglevel")

	if cfg.Region != "PAL" && cfg.Region != "NTSC" {
		return Config{}, fmt.Errorf("c64: invalid region %q, expected PAL or NTSC", cfg.Region)
	}
	return cfg, nil
}
