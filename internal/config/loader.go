package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config captures environment driven configuration for the courtboard
// service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	CourtCount        int
	SinglesMinutes    int
	DoublesMinutes    int
	AvgGameMinutes    int
	MinSessionMinutes int
	MaxSessionMinutes int
	SinglesOnlyCourts map[int]bool
	MetricsEnabled    bool
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for every field and accumulates the names of
// invalid entries so a misconfigured deployment fails with one complete
// report instead of the first bad variable.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:          8080,
		SQLiteDSN:         "file:courtboard.db?_foreign_keys=on",
		CourtCount:        12,
		SinglesMinutes:    60,
		DoublesMinutes:    90,
		AvgGameMinutes:    75,
		MinSessionMinutes: 30,
		MaxSessionMinutes: 180,
		SinglesOnlyCourts: map[int]bool{},
	}

	invalid := make([]string, 0, 2)

	intVar := func(name string, target *int, min int) {
		value := strings.TrimSpace(os.Getenv(name))
		if value == "" {
			return
		}
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < min {
			invalid = append(invalid, name)
			return
		}
		*target = parsed
	}

	intVar("COURTBOARD_HTTP_PORT", &cfg.HTTPPort, 1)
	intVar("COURTBOARD_COURT_COUNT", &cfg.CourtCount, 1)
	intVar("COURTBOARD_SINGLES_MINUTES", &cfg.SinglesMinutes, 1)
	intVar("COURTBOARD_DOUBLES_MINUTES", &cfg.DoublesMinutes, 1)
	intVar("COURTBOARD_AVG_GAME_MINUTES", &cfg.AvgGameMinutes, 1)
	intVar("COURTBOARD_MIN_SESSION_MINUTES", &cfg.MinSessionMinutes, 0)
	intVar("COURTBOARD_MAX_SESSION_MINUTES", &cfg.MaxSessionMinutes, 0)

	if dsn := strings.TrimSpace(os.Getenv("COURTBOARD_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if list := strings.TrimSpace(os.Getenv("COURTBOARD_SINGLES_ONLY_COURTS")); list != "" {
		for _, part := range strings.Split(list, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			number, err := strconv.Atoi(part)
			if err != nil || number < 1 {
				invalid = append(invalid, "COURTBOARD_SINGLES_ONLY_COURTS")
				break
			}
			cfg.SinglesOnlyCourts[number] = true
		}
	}

	if enabled := strings.TrimSpace(os.Getenv("COURTBOARD_METRICS_ENABLED")); enabled != "" {
		parsed, err := strconv.ParseBool(enabled)
		if err != nil {
			invalid = append(invalid, "COURTBOARD_METRICS_ENABLED")
		} else {
			cfg.MetricsEnabled = parsed
		}
	}

	if cfg.MaxSessionMinutes > 0 && cfg.MinSessionMinutes > cfg.MaxSessionMinutes {
		invalid = append(invalid, "COURTBOARD_MIN_SESSION_MINUTES")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
