package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"time"

	warmup "github.com/edge-optimizer/warmup-engine"
	resultstore "github.com/edge-optimizer/warmup-engine/pkg/result-store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	engineFlag         string
	targetsFlag        string
	secretEnvFlag      string
	urlTypeFlag        string
	journalFlag        string
	timeoutFlag        time.Duration
	verbosityTraceFlag bool

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&engineFlag, "engine", "http://localhost:8080/requestengine", "Engine endpoint")
	flag.StringVar(&targetsFlag, "targets", "-", "File with one target URL per line, - for stdin")
	flag.StringVar(&secretEnvFlag, "secret-env", warmup.DefaultSecretEnv, "Environment variable holding the request secret")
	flag.StringVar(&urlTypeFlag, "urltype", "", "URL type hint sent with every request (main_document, asset, exception)")
	flag.StringVar(&journalFlag, "journal", "", "SQLite file to record results in")
	flag.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Timeout per engine request")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	logLevel := zerolog.InfoLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}
	log.Logger = log.Level(logLevel).Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Str("version", version).Logger()

	secret := os.Getenv(secretEnvFlag)
	if secret == "" {
		log.Fatal().Str("env", secretEnvFlag).Msg("Request secret is not set")
	}

	var input io.Reader = os.Stdin
	if targetsFlag != "-" {
		f, err := os.Open(targetsFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot open targets file")
		}
		defer f.Close()
		input = f
	}
	targets, err := readTargets(input)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read targets")
	}

	c := &client{
		endpoint: engineFlag,
		secret:   secret,
		urlType:  urlTypeFlag,
		http:     &http.Client{Timeout: timeoutFlag},
		out:      os.Stdout,
		now:      time.Now,
	}
	if journalFlag != "" {
		journal, err := resultstore.NewSQLiteStore(journalFlag)
		if err != nil {
			log.Fatal().Err(err).Str("file", journalFlag).Msg("Cannot open journal")
		}
		c.journal = journal
	}

	ctx := log.Logger.WithContext(context.Background())
	sum := c.run(ctx, targets)
	if c.journal != nil {
		c.journal.Close()
	}
	log.Info().Int("total", sum.Total).Int("hits", sum.Hits).Int("misses", sum.Misses).Int("errors", sum.Errors).Msg("Warmup round finished")
	if sum.Errors > 0 {
		os.Exit(1)
	}
}
