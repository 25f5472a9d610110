package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/bgyooPtr/parse-paper-mcp/internal/config"
	"github.com/bgyooPtr/parse-paper-mcp/internal/ocr"
	"github.com/bgyooPtr/parse-paper-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("%s %s\n", server.ServerName, Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		fmt.Printf("  OCR:        %t\n", ocr.Available())
	}

	app := &cli.App{
		Name:    server.ServerName,
		Usage:   "MCP server for parsing academic paper PDFs",
		Version: Version,
		Description: "Extracts Markdown text, normalized images and metadata from PDF papers.\n" +
			"This server communicates via MCP protocol over stdin/stdout.\n" +
			"Configure it in your MCP client (e.g., Claude Desktop).",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"PARSE_PAPER_MCP_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (trace, debug, info, warn, error); overrides the config file",
				EnvVars: []string{"PARSE_PAPER_MCP_LOG_LEVEL"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		// stdout carries the protocol
		fmt.Fprintf(os.Stderr, "%s: %v\n", server.ServerName, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := cfg.NewLogger(os.Stderr)
	logger.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
		"ocr":     ocr.Available(),
	}).Debug("Starting Parse Paper MCP Server")

	srv := server.New(cfg, logger, Version)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
