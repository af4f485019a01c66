// Package config holds the kbdsim command line and the configuration file
// lookup. Flags and KBDSIM_* environment variables override file values.
package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"example.com/x86-hal/hal"
)

// Log selects the log level and an optional log file.
type Log struct {
	Level string `help:"Log level: trace, debug, info, warn, error" default:"info" enum:"trace,debug,info,warn,error" env:"KBDSIM_LOG_LEVEL"`
	File  string `help:"Also write logs to this file" type:"path" env:"KBDSIM_LOG_FILE"`
}

// Platform tunes the simulated PC.
type Platform struct {
	Tick  time.Duration `help:"CPU run loop re-check period" default:"10ms" env:"KBDSIM_TICK"`
	Poll  time.Duration `help:"Console poll period while waiting for input" default:"1ms" env:"KBDSIM_POLL"`
	Queue int           `help:"Scancodes the keyboard holds before dropping" default:"16" env:"KBDSIM_QUEUE"`
}

// HalConfig turns the options into a platform configuration.
func (p Platform) HalConfig(serial io.Writer, logger *slog.Logger) hal.Config {
	return hal.Config{
		TickInterval: p.Tick,
		ConsolePoll:  p.Poll,
		QueueSize:    p.Queue,
		Serial:       serial,
		Logger:       logger,
	}
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("AppData"); appdata != "" {
			return filepath.Join(appdata, "kbdsim"), nil
		}
		return "", errors.New("AppData not set")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "kbdsim"), nil
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".config", "kbdsim"), nil
		}
		return "", errors.New("HOME not set")
	}
}

// CandidatePaths lists configuration files per format in priority order. A
// userPath goes first, routed by its extension (JSON when unknown).
func CandidatePaths(userPath string) (jsonPaths, yamlPaths, tomlPaths []string) {
	add := func(dir, base string) {
		jsonPaths = append(jsonPaths, filepath.Join(dir, base+".json"))
		yamlPaths = append(yamlPaths, filepath.Join(dir, base+".yaml"), filepath.Join(dir, base+".yml"))
		tomlPaths = append(tomlPaths, filepath.Join(dir, base+".toml"))
	}

	if userPath != "" {
		switch filepath.Ext(userPath) {
		case ".yaml", ".yml":
			yamlPaths = append(yamlPaths, userPath)
		case ".toml":
			tomlPaths = append(tomlPaths, userPath)
		default:
			jsonPaths = append(jsonPaths, userPath)
		}
	}
	if wd, err := os.Getwd(); err == nil {
		add(wd, "kbdsim")
	}
	if dir, err := DefaultConfigDir(); err == nil {
		add(dir, "config")
	}
	if runtime.GOOS != "windows" {
		add("/etc/kbdsim", "config")
	}
	return jsonPaths, yamlPaths, tomlPaths
}

// FindUserConfig picks --config from args, falling back to KBDSIM_CONFIG.
// It runs before flag parsing so the file can feed the parser.
func FindUserConfig(args []string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("KBDSIM_CONFIG")
}
