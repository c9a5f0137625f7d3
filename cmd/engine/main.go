package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/manaforge/rules-engine/internal/config"
	"github.com/manaforge/rules-engine/internal/game"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	inputPath  = flag.String("input", "-", "request JSON file, - for stdin")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting rules engine",
		zap.String("version", version),
	)

	data, err := readInput(*inputPath)
	if err != nil {
		logger.Fatal("failed to read request", zap.Error(err))
	}

	orchestrator := game.NewOrchestrator(logger)
	if cfg.Engine.MaxReplacementIterations > 0 {
		orchestrator.SetMaxReplacementIterations(cfg.Engine.MaxReplacementIterations)
	}
	out, err := orchestrator.HandleJSON(data)
	if err != nil {
		logger.Fatal("action failed", zap.Error(err))
	}

	os.Stdout.Write(out)
	os.Stdout.Write([]byte("\n"))
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	// engine responses go to stdout; logs stay on stderr
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
