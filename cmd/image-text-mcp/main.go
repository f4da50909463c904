package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ironsheep/image-text-mcp/internal/config"
	"github.com/ironsheep/image-text-mcp/internal/history"
	"github.com/ironsheep/image-text-mcp/internal/log"
	"github.com/ironsheep/image-text-mcp/internal/ocr"
	"github.com/ironsheep/image-text-mcp/internal/server"
	"github.com/ironsheep/image-text-mcp/internal/session"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func printHelp(flags *pflag.FlagSet) {
	fmt.Println("image-text-mcp - MCP server for reading and grouping text in images")
	fmt.Println()
	fmt.Println("Usage: image-text-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Print(flags.FlagUsages())
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_TEXT_MCP_LOG_LEVEL=debug          Enable debug logging")
	fmt.Println("  IMAGE_TEXT_MCP_HISTORY_PATH=<file>      Where copied texts are kept")
	fmt.Println("  IMAGE_TEXT_MCP_OCR_TESSDATA_PREFIX=<dir> Tesseract language data")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	flags := pflag.NewFlagSet("image-text-mcp", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "Path to a YAML config file")
	showVersion := flags.BoolP("version", "v", false, "Print version information")
	showHelp := flags.BoolP("help", "h", false, "Print this help message")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *showVersion {
		fmt.Printf("image-text-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	}
	if *showHelp {
		printHelp(flags)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	log.Debugf("Image Text MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	engine := ocr.NewTesseract(
		ocr.WithTessdataPrefix(cfg.OCR.TessdataPrefix),
		ocr.WithPreprocess(cfg.OCR.Preprocess),
	)
	if info := engine.Info(); !info.Available {
		log.Warnf("OCR unavailable, scans will report no text: %s", info.Error)
	}

	store := history.Open(cfg.History.Path, cfg.History.Limit)

	sess, err := session.New(engine, store,
		session.WithParams(cfg.Grouping),
		session.WithLanguages(cfg.OCR.Languages...),
		session.WithLevel(ocr.ParseLevel(cfg.OCR.Level)),
		session.WithBatchWorkers(cfg.Batch.Workers),
	)
	if err != nil {
		log.Fatalf("session: %v", err)
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(sess, store, engine, server.WithParams(cfg.Grouping))
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Server error: %v", err)
	}
}
