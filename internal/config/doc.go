// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for geneaccess.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, validation and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServerConfig: Backend URL, timeout and user agent
//   - IntakeConfig: Final-question markers, restricted commands, report delay
//   - QuestionnaireConfig: Linear questionnaire steps
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GENEACCESS_*), including a .env file loaded by main
//   - ~/.geneaccess/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Watch for edits. Each good reload also replaces the global config:
//
//	go config.Watch(ctx, path, config.DefaultWatchDebounce, func(cfg *config.Config, err error) { ... })
package config
