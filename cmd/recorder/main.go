package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SoniCord-Development/sonicord/internal/audio"
	"github.com/SoniCord-Development/sonicord/internal/capture"
	"github.com/SoniCord-Development/sonicord/internal/config"
	"github.com/SoniCord-Development/sonicord/internal/encoder"
	"github.com/SoniCord-Development/sonicord/internal/metrics"
	"github.com/SoniCord-Development/sonicord/internal/server"
	"github.com/SoniCord-Development/sonicord/internal/sink"
)

const (
	serviceName    = "sonicord-recorder"
	serviceVersion = "1.0.0"

	// The single participant fed from the local input stream.
	localUserID = 1
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults apply when empty)")
	inputPath := flag.String("input", "-", "Raw s16le 48kHz stereo PCM input file, - for stdin")
	outputBase := flag.String("output", "recording", "Output file path without extension")
	format := flag.String("format", "", "Output format override (pcm, wav, mkv, mka, mp3, ogg, m4a, mp4)")
	flag.Parse()

	// Load configuration
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if *format != "" {
		cfg.Encoding.Format = *format
		if err := cfg.Encoding.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid format override: %v\n", err)
			os.Exit(1)
		}
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Recorder starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("format", cfg.Encoding.Format),
		slog.String("input", *inputPath),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, *inputPath, *outputBase); err != nil {
		logger.Error("Recorder failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Recorder finished")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, inputPath, outputBase string) error {
	capability, err := encoder.ForEncoding(cfg.Encoding.Format, cfg.Encoding.FFmpegPath)
	if err != nil {
		return fmt.Errorf("failed to resolve encoder capability: %w", err)
	}

	filter, err := capture.NewFilter(
		capture.WithMaxSilenceGap(cfg.Capture.GetMaxSilenceGap()),
		capture.WithAllowedUsers(cfg.Capture.AllowedUsers...),
		capture.WithDeniedUsers(cfg.Capture.DeniedUsers...),
	)
	if err != nil {
		return err
	}

	appMetrics := metrics.NewMetrics()
	recSink := sink.New(logger, filter, capability, sink.WithMetrics(appMetrics))

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(server.HTTPServerConfig{
			Address: cfg.HTTP.Address,
			Port:    cfg.HTTP.Port,
		}, logger, recSink)
		httpServer.Start()

		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()

			if err := httpServer.Stop(shutdownCtx); err != nil {
				logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
			}
		}()
	}

	input, err := openInput(inputPath)
	if err != nil {
		return err
	}
	defer input.Close()

	if err := recSink.Start(); err != nil {
		return err
	}

	if err := capturePCM(ctx, recSink, input, logger); err != nil {
		return err
	}

	if err := recSink.Stop(); err != nil {
		return err
	}

	// Write whatever converted successfully even when some participants
	// failed; the conversion error is reported after the outputs land.
	results, convErr := recSink.Convert(ctx)

	if err := writeResults(results, outputBase, logger); err != nil {
		return err
	}

	return convErr
}

// writeResults persists each participant's formatted audio next to the
// output base path, one file per participant.
func writeResults(results sink.Results, outputBase string, logger *slog.Logger) error {
	for userID, formatted := range results {
		path := fmt.Sprintf("%s.%s", outputBase, formatted.Encoding)
		if err := writeOutput(path, formatted.File); err != nil {
			return fmt.Errorf("failed to write output for user %d: %w", userID, err)
		}

		logger.Info("Output written",
			slog.Uint64("user_id", userID),
			slog.String("path", path),
		)
	}

	return nil
}

// capturePCM feeds the input stream into the sink one nominal frame at a
// time until EOF or cancellation.
func capturePCM(ctx context.Context, recSink *sink.Sink, input io.Reader, logger *slog.Logger) error {
	frame := make([]byte, audio.FrameBytes)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Capture interrupted")
			return nil
		default:
		}

		n, err := io.ReadFull(input, frame)
		if n > 0 {
			if werr := recSink.Write(localUserID, frame[:n], time.Now()); werr != nil {
				return werr
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input %s: %w", path, err)
	}
	return f, nil
}

func writeOutput(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
