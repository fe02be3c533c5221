// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete geneaccess configuration.
type Config struct {
	Version string `toml:"version"`

	// Backend connection
	Server ServerConfig `toml:"server"`

	// Login credentials. Prefer GENEACCESS_PASSWORD over storing the
	// password in the file.
	Account AccountConfig `toml:"account"`

	// Chat intake behavior
	Intake IntakeConfig `toml:"intake"`

	// Linear questionnaire
	Questionnaire QuestionnaireConfig `toml:"questionnaire"`

	// Report downloads
	Reports ReportsConfig `toml:"reports"`

	Logging LoggingConfig `toml:"logging"`

	UI UIConfig `toml:"ui"`
}

// ServerConfig contains backend connection settings.
type ServerConfig struct {
	// BaseURL is the backend root (default: http://127.0.0.1:5000)
	BaseURL string `toml:"base_url"`

	// RequestTimeoutSecs bounds each request. 0 disables the client-side
	// timeout and leaves it to the transport.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	UserAgent string `toml:"user_agent"`
}

// AccountConfig contains login credentials.
type AccountConfig struct {
	Email    string `toml:"email"`
	Password string `toml:"password,omitempty"`
}

// IntakeConfig controls the chat session controller.
type IntakeConfig struct {
	// FinalQuestionMarkers are bot prompts after which the next answer
	// ends the intake. Used only when the backend does not flag the final
	// question itself.
	FinalQuestionMarkers []string `toml:"final_question_markers"`

	// RestrictedCommands are rejected locally until analysis completes.
	RestrictedCommands []string `toml:"restricted_commands"`

	// ReportDelayMs is the cosmetic pause before the report is shown.
	ReportDelayMs int `toml:"report_delay_ms"`

	// AutoContinue sends ContinueMessage when the backend asks the client
	// to wait for its prediction.
	AutoContinue    bool   `toml:"auto_continue"`
	ContinueMessage string `toml:"continue_message"`
}

// QuestionnaireConfig contains the linear questionnaire.
type QuestionnaireConfig struct {
	// Questions are answered in order with free text.
	Questions []string `toml:"questions"`

	// UploadPrompt is shown on the final, file-attachment step.
	UploadPrompt string `toml:"upload_prompt"`
}

// ReportsConfig contains report download settings.
type ReportsConfig struct {
	// DownloadDir receives downloaded reports (default: ~/.geneaccess/reports)
	DownloadDir string `toml:"download_dir"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`

	// File receives logs (default: ~/.geneaccess/geneaccess.log)
	File string `toml:"file"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	ShowTimestamps bool `toml:"show_timestamps"`

	// MarkdownStyle is a glamour style: auto, dark, light or notty.
	MarkdownStyle string `toml:"markdown_style"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// DefaultFinalQuestionMarkers are the literal last intake prompts of the
// known backend versions.
var DefaultFinalQuestionMarkers = []string{
	"Have you had any genetic testing before?",
	"Do you know your heart rate?",
}

// DefaultRestrictedCommands are gated until analysis completes.
var DefaultRestrictedCommands = []string{
	"results",
	"report",
	"summary",
	"analysis",
	"pdf",
	"download report",
	"get report",
}

// DefaultQuestions is the built-in linear questionnaire.
var DefaultQuestions = []string{
	"Does anyone in your family have genetic health problems? (Yes / No / Not sure)",
	"Have there been any birth defects in your family? (If none, type 'None')",
	"Did you have trouble breathing when you were born? (Birth asphyxia)",
	"Did your mother have any serious illness or radiation exposure during pregnancy?",
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			BaseURL:   "http://127.0.0.1:5000",
			UserAgent: "geneaccess-tui",
		},
		Intake: IntakeConfig{
			FinalQuestionMarkers: append([]string(nil), DefaultFinalQuestionMarkers...),
			RestrictedCommands:   append([]string(nil), DefaultRestrictedCommands...),
			ReportDelayMs:        2000,
			AutoContinue:         true,
			ContinueMessage:      "continue",
		},
		Questionnaire: QuestionnaireConfig{
			Questions:    append([]string(nil), DefaultQuestions...),
			UploadPrompt: "Attach your DNA file (optional). Enter a file path, or leave blank to submit without one.",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		UI: UIConfig{
			ShowTimestamps: true,
			MarkdownStyle:  "auto",
		},
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// RequestTimeout returns the per-request timeout (0 = none).
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSecs) * time.Second
}

// ReportDelay returns the cosmetic report-loader delay.
func (c *Config) ReportDelay() time.Duration {
	return time.Duration(c.Intake.ReportDelayMs) * time.Millisecond
}

// QuestionList returns the questionnaire steps: every text question
// followed by the upload prompt.
func (c *Config) QuestionList() []string {
	steps := make([]string, 0, len(c.Questionnaire.Questions)+1)
	steps = append(steps, c.Questionnaire.Questions...)
	return append(steps, c.Questionnaire.UploadPrompt)
}

// LogFilePath returns the log file, defaulting into the config directory.
func (c *Config) LogFilePath() string {
	if c.Logging.File != "" {
		return expandHome(c.Logging.File)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "geneaccess.log"
	}
	return filepath.Join(dir, "geneaccess.log")
}

// ReportDir returns the download directory, defaulting into the config
// directory.
func (c *Config) ReportDir() string {
	if c.Reports.DownloadDir != "" {
		return expandHome(c.Reports.DownloadDir)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "reports"
	}
	return filepath.Join(dir, "reports")
}

// HasCredentials reports whether both login fields are set.
func (c *Config) HasCredentials() bool {
	return c.Account.Email != "" && c.Account.Password != ""
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the geneaccess configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".geneaccess"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions restricts a config file to its owner. The file
// may hold the account password.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.geneaccess/config.toml if it exists, otherwise the
// defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys missing from the file keep
// the values cfg already had.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults restores defaults for values a file set to empty.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = defaults.Server.BaseURL
	}
	if cfg.Server.UserAgent == "" {
		cfg.Server.UserAgent = defaults.Server.UserAgent
	}
	if len(cfg.Intake.RestrictedCommands) == 0 {
		cfg.Intake.RestrictedCommands = defaults.Intake.RestrictedCommands
	}
	if cfg.Intake.ContinueMessage == "" {
		cfg.Intake.ContinueMessage = defaults.Intake.ContinueMessage
	}
	if len(cfg.Questionnaire.Questions) == 0 {
		cfg.Questionnaire.Questions = defaults.Questionnaire.Questions
	}
	if cfg.Questionnaire.UploadPrompt == "" {
		cfg.Questionnaire.UploadPrompt = defaults.Questionnaire.UploadPrompt
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
	if cfg.UI.MarkdownStyle == "" {
		cfg.UI.MarkdownStyle = defaults.UI.MarkdownStyle
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
// The password is never written; it belongs in GENEACCESS_PASSWORD.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# geneaccess configuration file")
	fmt.Fprintln(file, "# Set GENEACCESS_PASSWORD in the environment or a .env file")
	fmt.Fprintln(file, "")

	out := *cfg
	out.Account.Password = ""
	if err := toml.NewEncoder(file).Encode(out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "server.base_url",
			Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port]", c.Server.BaseURL),
		})
	}

	if c.Server.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout_secs",
			Message: "must be 0 (no timeout) or positive",
		})
	}

	if c.Intake.ReportDelayMs < 0 || c.Intake.ReportDelayMs > 60000 {
		errs = append(errs, ValidationError{
			Field:   "intake.report_delay_ms",
			Message: fmt.Sprintf("%d out of range, must be 0-60000", c.Intake.ReportDelayMs),
		})
	}

	for i, cmd := range c.Intake.RestrictedCommands {
		if strings.TrimSpace(cmd) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("intake.restricted_commands[%d]", i),
				Message: "must not be blank",
			})
		}
	}

	for i, marker := range c.Intake.FinalQuestionMarkers {
		if strings.TrimSpace(marker) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("intake.final_question_markers[%d]", i),
				Message: "must not be blank",
			})
		}
	}

	if c.Intake.AutoContinue && strings.TrimSpace(c.Intake.ContinueMessage) == "" {
		errs = append(errs, ValidationError{
			Field:   "intake.continue_message",
			Message: "required when auto_continue is enabled",
		})
	}

	if len(c.Questionnaire.Questions) == 0 {
		errs = append(errs, ValidationError{
			Field:   "questionnaire.questions",
			Message: "at least one question is required",
		})
	}
	for i, q := range c.Questionnaire.Questions {
		if strings.TrimSpace(q) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("questionnaire.questions[%d]", i),
				Message: "must not be blank",
			})
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be json or text", c.Logging.Format),
		})
	}

	validStyles := map[string]bool{"auto": true, "dark": true, "light": true, "notty": true}
	if !validStyles[strings.ToLower(c.UI.MarkdownStyle)] {
		errs = append(errs, ValidationError{
			Field:   "ui.markdown_style",
			Message: fmt.Sprintf("invalid style '%s', must be one of: auto, dark, light, notty", c.UI.MarkdownStyle),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GENEACCESS_URL: overrides server.base_url
//   - GENEACCESS_TIMEOUT: overrides server.request_timeout_secs
//   - GENEACCESS_EMAIL: overrides account.email
//   - GENEACCESS_PASSWORD: overrides account.password
//   - GENEACCESS_REPORT_DIR: overrides reports.download_dir
//   - GENEACCESS_REPORT_DELAY_MS: overrides intake.report_delay_ms
//   - GENEACCESS_LOG_LEVEL: overrides logging.level
//   - GENEACCESS_LOG_FILE: overrides logging.file
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GENEACCESS_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("GENEACCESS_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Server.RequestTimeoutSecs = secs
		}
	}
	if v := os.Getenv("GENEACCESS_EMAIL"); v != "" {
		c.Account.Email = v
	}
	if v := os.Getenv("GENEACCESS_PASSWORD"); v != "" {
		c.Account.Password = v
	}
	if v := os.Getenv("GENEACCESS_REPORT_DIR"); v != "" {
		c.Reports.DownloadDir = v
	}
	if v := os.Getenv("GENEACCESS_REPORT_DELAY_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Intake.ReportDelayMs = ms
		}
	}
	if v := os.Getenv("GENEACCESS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("GENEACCESS_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access; an invalid file falls back to
// defaults with a warning.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

// ReloadGlobal reads the config file at path, or the default file when
// path is empty, and makes it the global configuration. On error the
// current configuration is kept.
func ReloadGlobal(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg, err = Load()
	} else {
		cfg, err = LoadFromPath(path)
	}
	if err != nil {
		return nil, err
	}
	SetGlobal(cfg)
	return cfg, nil
}
