package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ironsheep/bgeffect-mcp/internal/config"
	"github.com/ironsheep/bgeffect-mcp/internal/logging"
	"github.com/ironsheep/bgeffect-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("bgeffect-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("bgeffect-mcp - MCP server for video background effects")
			fmt.Println()
			fmt.Println("Usage: bgeffect-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  BGFX_MCP_LOG_LEVEL=debug               Log level: debug, info, warn, error")
			fmt.Println("  BGFX_MCP_TUNING=/path/to/tuning.json   Override tuning defaults")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// stdout is for the MCP protocol; the logger writes to stderr
	logger, err := logging.New("bgeffect-mcp", os.Getenv("BGFX_MCP_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bgeffect-mcp: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	tuning := config.EmptyTuningConfig()
	if path := os.Getenv("BGFX_MCP_TUNING"); path != "" {
		tuning, err = config.LoadTuningConfig(path)
		if err != nil {
			logger.Fatal("failed to load tuning", zap.String("path", path), zap.Error(err))
		}
		logger.Info("loaded tuning", zap.String("path", path))
	}

	logger.Debug("starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(tuning, logger, Version)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
