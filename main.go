// gemchat - Gemini chat for the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat/internal/cli"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdStatus:
		cli.HandleStatus(args)
	case cli.CmdSessions:
		cli.HandleSessions(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		cli.PrintUsage()
		os.Exit(1)
	}
}

// runTUI starts the full-screen chat interface.
func runTUI(args cli.Args) {
	// The TUI needs a real terminal; fall back to the plain REPL when
	// stdout is piped or redirected.
	if !cli.IsStdoutTTY() {
		cli.HandleChat(args)
		return
	}

	orc, cfg, err := cli.NewSession(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer orc.Shutdown()

	m := chat.New(orc, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Live config reload: edits to config.toml update the session without
	// a restart. Failure to watch is not fatal.
	watcher, err := config.NewWatcher(func(cfg *config.Config) {
		orc.SetAPIKey(cfg.API.Key)
		orc.SetEndpoint(cfg.API.BaseURL)
		p.Send(chat.StatusMsg{Text: "Configuration reloaded"})
	})
	if err == nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
