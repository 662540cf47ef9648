/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "gomanga/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type EditorConfig struct {
	// TapWindowMs is the gesture window for space-bar taps.
	TapWindowMs     int `yaml:"tap_window_ms"`
	HistoryKeep     int `yaml:"history_keep"`
	WatchDebounceMs int `yaml:"watch_debounce_ms"`
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	TelemetryURL   string `yaml:"telemetry_url"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Editor        EditorConfig  `yaml:"editor"`
	General       GeneralConfig `yaml:"general"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor:        EditorConfig{TapWindowMs: 300, HistoryKeep: 50, WatchDebounceMs: 200},
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath      = "GMW_CONFIG"
	EnvTapWindowMs     = "GMW_TAP_WINDOW_MS"
	EnvHistoryKeep     = "GMW_HISTORY_KEEP"
	EnvWatchDebounceMs = "GMW_WATCH_DEBOUNCE_MS"
	EnvTelemetryOptIn  = "GMW_TELEMETRY_OPT_IN"
	EnvTelemetryURL    = "GMW_TELEMETRY_URL"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "GMW_LOG_LEVEL"
	EnvLogFormat = "GMW_LOG_FORMAT"
	EnvLogSource = "GMW_LOG_SOURCE"
	EnvLogFile   = "GMW_LOG_FILE"
)

// ConfigPath returns the per-user config file path. GMW_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GoManga")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GoManga")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "gomanga")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "gomanga")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// A malformed file is reported but the defaults plus env overrides are still returned.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var ferr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			ferr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, ferr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.Editor.TapWindowMs > 0 {
		dst.Editor.TapWindowMs = src.Editor.TapWindowMs
	}
	if src.Editor.HistoryKeep != 0 {
		dst.Editor.HistoryKeep = src.Editor.HistoryKeep
	}
	if src.Editor.WatchDebounceMs > 0 {
		dst.Editor.WatchDebounceMs = src.Editor.WatchDebounceMs
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if strings.TrimSpace(src.General.TelemetryURL) != "" {
		dst.General.TelemetryURL = strings.TrimSpace(src.General.TelemetryURL)
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if n, ok := envInt(EnvTapWindowMs); ok && n > 0 {
		cfg.Editor.TapWindowMs = n
	}
	if n, ok := envInt(EnvHistoryKeep); ok {
		cfg.Editor.HistoryKeep = n
	}
	if n, ok := envInt(EnvWatchDebounceMs); ok && n > 0 {
		cfg.Editor.WatchDebounceMs = n
	}
	if v, ok := envBool(EnvTelemetryOptIn); ok {
		cfg.General.TelemetryOptIn = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryURL)); v != "" {
		cfg.General.TelemetryURL = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := envBool(EnvLogSource); ok {
		cfg.Logging.Source = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envInt(name string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func envBool(name string) (bool, bool) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false, false
	}
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes", true
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"editor.tap_window_ms":     EnvTapWindowMs,
		"editor.history_keep":      EnvHistoryKeep,
		"editor.watch_debounce_ms": EnvWatchDebounceMs,
		"general.telemetry_opt_in": EnvTelemetryOptIn,
		"general.telemetry_url":    EnvTelemetryURL,
		"logging.level":            EnvLogLevel,
		"logging.format":           EnvLogFormat,
		"logging.source":           EnvLogSource,
		"logging.file":             EnvLogFile,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// TapWindow returns the gesture window as a duration.
func (e EditorConfig) TapWindow() time.Duration {
	if e.TapWindowMs <= 0 {
		return time.Duration(Defaults().Editor.TapWindowMs) * time.Millisecond
	}
	return time.Duration(e.TapWindowMs) * time.Millisecond
}

// WatchDebounce returns the file watch debounce as a duration.
func (e EditorConfig) WatchDebounce() time.Duration {
	if e.WatchDebounceMs <= 0 {
		return time.Duration(Defaults().Editor.WatchDebounceMs) * time.Millisecond
	}
	return time.Duration(e.WatchDebounceMs) * time.Millisecond
}

// LogOptions converts the logging section for log.Init.
func (l LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}
