// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points the home directory at a temp dir so tests never read
// or write the user's real ~/.geneaccess.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	for _, key := range []string{
		"GENEACCESS_URL", "GENEACCESS_TIMEOUT", "GENEACCESS_EMAIL", "GENEACCESS_PASSWORD",
		"GENEACCESS_REPORT_DIR", "GENEACCESS_REPORT_DELAY_MS", "GENEACCESS_LOG_LEVEL", "GENEACCESS_LOG_FILE",
	} {
		t.Setenv(key, "")
	}
	return home
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_ConcurrentReload tests concurrent ReloadGlobal and Global calls.
func TestConfig_ConcurrentReload(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	_ = Global()

	var wg sync.WaitGroup

	// 20 reloaders, 80 readers
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ReloadGlobal("")
		}()
	}

	for i := 0; i < 80; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

func TestConfig_GlobalInitialization(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	cfg := Global()
	require.NotNil(t, cfg)
	assert.NotEmpty(t, cfg.Version)
	assert.Equal(t, "http://127.0.0.1:5000", cfg.Server.BaseURL)
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	_ = Global()

	custom := Default()
	custom.Version = "custom-version"
	SetGlobal(custom)

	assert.Equal(t, "custom-version", Global().Version)
}

func TestReloadGlobal_FromPath(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	path := filepath.Join(t.TempDir(), "config.toml")
	custom := Default()
	custom.Intake.ReportDelayMs = 750
	require.NoError(t, SaveTOML(custom, path))

	cfg, err := ReloadGlobal(path)
	require.NoError(t, err)
	assert.Equal(t, 750, cfg.Intake.ReportDelayMs)
	assert.Same(t, cfg, Global())

	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0600))
	_, err = ReloadGlobal(path)
	require.Error(t, err)
	assert.Same(t, cfg, Global(), "a bad file keeps the current config")
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.NotEmpty(t, cfg.Version)
	assert.Equal(t, 2000, cfg.Intake.ReportDelayMs)
	assert.Equal(t, 2*time.Second, cfg.ReportDelay())
	assert.Zero(t, cfg.RequestTimeout(), "no client timeout by default")
	assert.True(t, cfg.Intake.AutoContinue)
	assert.Contains(t, cfg.Intake.FinalQuestionMarkers, "Have you had any genetic testing before?")
	assert.Contains(t, cfg.Intake.RestrictedCommands, "results")
	assert.Len(t, cfg.Questionnaire.Questions, 4)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_DefaultIsIndependent(t *testing.T) {
	a := Default()
	a.Intake.RestrictedCommands[0] = "changed"
	a.Questionnaire.Questions[0] = "changed"

	b := Default()
	assert.Equal(t, "results", b.Intake.RestrictedCommands[0])
	assert.NotEqual(t, "changed", b.Questionnaire.Questions[0])
}

func TestConfig_QuestionList(t *testing.T) {
	cfg := Default()
	cfg.Questionnaire.Questions = []string{"one", "two"}
	cfg.Questionnaire.UploadPrompt = "upload"

	assert.Equal(t, []string{"one", "two", "upload"}, cfg.QuestionList())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"defaults", func(*Config) {}, "", false},
		{"https url", func(c *Config) { c.Server.BaseURL = "https://intake.example.org" }, "", false},
		{"bad scheme", func(c *Config) { c.Server.BaseURL = "ftp://x" }, "server.base_url", true},
		{"missing host", func(c *Config) { c.Server.BaseURL = "http://" }, "server.base_url", true},
		{"negative timeout", func(c *Config) { c.Server.RequestTimeoutSecs = -1 }, "server.request_timeout_secs", true},
		{"delay too long", func(c *Config) { c.Intake.ReportDelayMs = 60001 }, "intake.report_delay_ms", true},
		{"zero delay", func(c *Config) { c.Intake.ReportDelayMs = 0 }, "", false},
		{"blank restricted command", func(c *Config) { c.Intake.RestrictedCommands = []string{" "} }, "intake.restricted_commands[0]", true},
		{"blank marker", func(c *Config) { c.Intake.FinalQuestionMarkers = []string{"x", ""} }, "intake.final_question_markers[1]", true},
		{"no markers", func(c *Config) { c.Intake.FinalQuestionMarkers = nil }, "", false},
		{"auto continue without message", func(c *Config) { c.Intake.ContinueMessage = "" }, "intake.continue_message", true},
		{"no questions", func(c *Config) { c.Questionnaire.Questions = nil }, "questionnaire.questions", true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level", true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format", true},
		{"bad markdown style", func(c *Config) { c.UI.MarkdownStyle = "neon" }, "ui.markdown_style", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs), "want ValidateErrors, got %T", err)
			var fields []string
			for _, v := range verrs {
				fields = append(fields, v.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestConfig_ApplyEnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("GENEACCESS_URL", "https://intake.example.org")
	t.Setenv("GENEACCESS_TIMEOUT", "30")
	t.Setenv("GENEACCESS_EMAIL", "pat@example.org")
	t.Setenv("GENEACCESS_PASSWORD", "hunter2")
	t.Setenv("GENEACCESS_REPORT_DELAY_MS", "0")
	t.Setenv("GENEACCESS_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "https://intake.example.org", cfg.Server.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout())
	assert.Equal(t, "pat@example.org", cfg.Account.Email)
	assert.True(t, cfg.HasCredentials())
	assert.Zero(t, cfg.ReportDelay())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_ApplyEnvOverrides_IgnoresGarbageNumbers(t *testing.T) {
	isolateHome(t)
	t.Setenv("GENEACCESS_TIMEOUT", "soon")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Zero(t, cfg.Server.RequestTimeoutSecs)
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
base_url = "http://10.0.0.5:8080"

[intake]
report_delay_ms = 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8080", cfg.Server.BaseURL)
	assert.Equal(t, 500, cfg.Intake.ReportDelayMs)
	assert.Equal(t, "continue", cfg.Intake.ContinueMessage)
	assert.Len(t, cfg.Questionnaire.Questions, 4)
	assert.Equal(t, "info", cfg.Logging.Level)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.Getenv("OS") != "Windows_NT" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "permissions tightened on load")
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"loud\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoadFromPath_Malformed(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\n"), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Server.BaseURL, cfg.Server.BaseURL)
}

func TestSaveTOML_RoundTripOmitsPassword(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Account.Email = "pat@example.org"
	cfg.Account.Password = "hunter2"
	cfg.Intake.ReportDelayMs = 750
	require.NoError(t, SaveTOML(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.Contains(t, string(data), "# geneaccess configuration file")
	assert.Equal(t, "hunter2", cfg.Account.Password, "caller's config untouched")

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "pat@example.org", loaded.Account.Email)
	assert.Empty(t, loaded.Account.Password)
	assert.Equal(t, 750, loaded.Intake.ReportDelayMs)
}

func TestConfig_PathHelpers(t *testing.T) {
	home := isolateHome(t)
	cfg := Default()

	assert.Equal(t, filepath.Join(home, ".geneaccess", "geneaccess.log"), cfg.LogFilePath())
	assert.Equal(t, filepath.Join(home, ".geneaccess", "reports"), cfg.ReportDir())

	cfg.Reports.DownloadDir = "~/Downloads"
	assert.Equal(t, filepath.Join(home, "Downloads"), cfg.ReportDir())
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	isolateHome(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(cfg *Config, err error) {
			if err == nil {
				changes <- cfg
			}
		})
	}()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	updated := Default()
	updated.Intake.ReportDelayMs = 123
	require.NoError(t, SaveTOML(updated, path))

	select {
	case cfg := <-changes:
		assert.Equal(t, 123, cfg.Intake.ReportDelayMs)
		assert.Equal(t, 123, Global().Intake.ReportDelayMs, "the reload becomes the global config")
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
