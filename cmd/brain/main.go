package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/brain/internal/config"
	"github.com/hpungsan/brain/internal/db"
	"github.com/hpungsan/brain/internal/logger"
	"github.com/hpungsan/brain/internal/mcp"
	"github.com/hpungsan/brain/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"process": true, "analyze": true, "capture": true, "ingest": true,
	"search": true, "fetch": true, "list": true,
	"delete": true, "purge": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _               _
  | |__  _ __ __ _(_)_ __
  | '_ \| '__/ _' | | '_ \
  | |_) | | | (_| | | | | |
  |_.__/|_|  \__,_|_|_| |_|

  Personal knowledge capture

  Usage: brain <command> [options]
         brain --help

  MCP server mode requires piped input.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'brain --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".brain")

	cwd, _ := os.Getwd()
	cfg, err := config.LoadAll(baseDir, cwd)
	if err != nil {
		fail("failed to load config: %v", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		fail("failed to create logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Init(baseDir)
	if err != nil {
		fail("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	svc, err := ops.NewService(database, cfg, log, false)
	if err != nil {
		fail("%v", err)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		if err := newCLIApp(svc).Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	// MCP server mode (default)
	restricted := svc.Restricted()
	if err := restricted.EnsureVectors(context.Background()); err != nil {
		fail("%v", err)
	}
	if err := mcp.Run(restricted, Version); err != nil {
		fail("%v", err)
	}
}
