package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/apicache/apicache"
	"github.com/apicache/apicache/config"
	"github.com/apicache/apicache/eventlog"
	"github.com/apicache/apicache/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	originFlag         string
	portFlag           int
	journalFlag        string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to (overrides config)")
	flag.IntVar(&portFlag, "port", 0, "Port to listen on (overrides config)")
	flag.StringVar(&journalFlag, "journal", "", "Event journal DB file (overrides config)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	cfg, err := config.NewLoader("APICACHE", configFilenameFlag).Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}
	if originFlag != "" {
		cfg.Origin = originFlag
	}
	if portFlag != 0 {
		cfg.Listen.Port = portFlag
	}
	if journalFlag != "" {
		cfg.Journal = journalFlag
	}
	if verbosityTraceFlag {
		cfg.Logging.Level = "trace"
	}
	if logFilenameFlag != "" {
		cfg.Logging.File = logFilenameFlag
	}

	// set log level
	logLevel, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatal().Err(err).Msg("Unsupported log level")
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if cfg.Logging.File != "" {
		if logFileOutput, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	if cfg.Origin == "" {
		log.Fatal().Msg("Please specify origin")
	}

	var recorder *metrics.Recorder
	if cfg.Metrics {
		recorder = metrics.NewRecorder(prometheus.NewRegistry())
	}

	events := eventlog.New()
	if cfg.Journal != "" {
		journal, err := eventlog.OpenJournal(cfg.Journal)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot open event journal")
		}
		defer journal.Close()
		events.Start(journal)
		log.Info().Str("journal", cfg.Journal).Msg("Recording events to journal")
	} else {
		events.Start(multiWriter)
	}

	client := apicache.New(apicache.Config{
		OriginURL: cfg.Origin,
		Log:       events,
		Metrics:   recorder,
	})

	router := chi.NewRouter()
	if recorder != nil {
		router.Handle("/-/metrics", recorder.Handler())
	}
	router.Post("/-/cache/clear", func(w http.ResponseWriter, r *http.Request) {
		client.ClearCache()
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, "Cache cleared")
	})
	router.HandleFunc("/*", proxyHandler(client))

	addr := net.JoinHostPort(cfg.Listen.Address, strconv.Itoa(cfg.Listen.Port))
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("origin", cfg.Origin).Msg("Listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
		log.Info().Msg("Shutdown complete")
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}
}
