// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler for gemchat CLI.
//
// Subcommands:
//
//	gemchat config show       Show current configuration (key redacted)
//	gemchat config set K V    Set a configuration value and save
//	gemchat config path       Print the config file path
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) {
	if err := handleConfigCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
		os.Exit(1)
	}
}

func handleConfigCommand(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow()
	case "set":
		return configSet(args.ConfigKey, args.ConfigVal)
	case "path":
		return configPath()
	default:
		return fmt.Errorf("unknown config subcommand: %s (want show, set, or path)", args.Subcommand)
	}
}

// configShow prints the active configuration with the API key redacted.
func configShow() error {
	cfg := config.Global()

	fmt.Println(summaryHeaderStyle.Render("Configuration"))
	fmt.Println()

	redacted := "(not set)"
	if cfg.API.Key != "" {
		redacted = "****" + tail(cfg.API.Key, 4)
	}

	rows := []struct{ key, value string }{
		{"api_key", redacted},
		{"api_url", cfg.API.BaseURL},
		{"model", cfg.API.Model},
		{"timeout_secs", strconv.Itoa(cfg.API.TimeoutSecs)},
		{"requests_per_second", strconv.FormatFloat(cfg.API.RequestsPerSecond, 'g', -1, 64)},
		{"generation.temperature", strconv.FormatFloat(cfg.Generation.Temperature, 'g', -1, 64)},
		{"generation.max_output_tokens", strconv.Itoa(cfg.Generation.MaxOutputTokens)},
		{"storage.backend", cfg.Storage.Backend},
		{"storage.dir", cfg.Storage.Dir},
		{"ui.theme", cfg.UI.Theme},
		{"ui.markdown", strconv.FormatBool(cfg.UI.Markdown)},
	}
	for _, row := range rows {
		value := row.value
		if value == "" {
			value = "(default)"
		}
		fmt.Printf("  %s %s\n",
			infoStyle.Render(fmt.Sprintf("%-30s", row.key)),
			commandStyle.Render(value))
	}
	return nil
}

// configSet updates a single key and saves the config file.
func configSet(key, value string) error {
	if key == "" {
		return fmt.Errorf("usage: gemchat config set KEY VALUE")
	}

	cfg := config.Global().Clone()

	switch key {
	case "api_key", "key":
		cfg.API.Key = value
	case "api_url", "base_url":
		cfg.API.BaseURL = value
	case "model":
		cfg.API.Model = value
	case "timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeout_secs must be an integer: %w", err)
		}
		cfg.API.TimeoutSecs = n
	case "storage.backend":
		cfg.Storage.Backend = value
	case "storage.dir":
		cfg.Storage.Dir = value
	case "ui.theme":
		cfg.UI.Theme = value
	case "ui.markdown":
		b, err := ParseBoolString(value)
		if err != nil {
			return err
		}
		cfg.UI.Markdown = b
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	config.SetGlobal(cfg)

	fmt.Println(styles.RenderSuccess(key + " updated"))
	return nil
}

// configPath prints the path of the config file.
func configPath() error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(dir, "config.toml"))
	return nil
}

// tail returns the last n characters of s, or an empty string when s is
// too short to reveal anything safely.
func tail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return ""
	}
	return string(runes[len(runes)-n:])
}
