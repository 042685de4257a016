package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	warmup "github.com/edge-optimizer/warmup-engine"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	portFlag           int
	areaFlag           string
	markerFlag         string
	secretEnvFlag      string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "YAML config file")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&areaFlag, "area", "", "Area reported in results, e.g. region name (default \"local\")")
	flag.StringVar(&markerFlag, "marker", "", "Value of the x-eo-re header sent to targets (default \"go\")")
	flag.StringVar(&secretEnvFlag, "secret-env", "", "Environment variable holding the request secret (default \"EO_REQUEST_SECRET\")")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	config, err := getConfig(configFilenameFlag)
	if err != nil {
		log.Fatal().Err(err).Str("file", configFilenameFlag).Msg("Could not read config")
	}
	applyFlags(&config)

	ec, err := engineConfig(config, os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if ec.Secret == "" {
		log.Warn().Str("env", ec.SecretEnv).Msg("Request secret is not set, all requests will fail")
	}

	engine, err := warmup.CreateEngine(ec)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create engine")
	}

	log.Info().Msgf("Listening on port %v (area '%s')", config.Port, ec.Area)
	err = http.ListenAndServe(fmt.Sprintf(":%d", config.Port), newRouter(engine, version))

	if err != nil {
		panic(err)
	}
}

// applyFlags lets flags given on the command line override the config file.
func applyFlags(config *Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			config.Port = portFlag
		case "area":
			config.Area = areaFlag
		case "marker":
			config.MarkerValue = markerFlag
		case "secret-env":
			config.SecretEnv = secretEnvFlag
		}
	})
	if config.Port == 0 {
		config.Port = portFlag
	}
}

// engineConfig resolves the secret and the extension set.
func engineConfig(config Config, getenv func(string) string) (warmup.Config, error) {
	secretEnv := config.SecretEnv
	if secretEnv == "" {
		secretEnv = warmup.DefaultSecretEnv
	}
	area := config.Area
	if area == "" {
		area = warmup.DefaultArea
	}
	extensions, err := warmup.DefaultExtensions()
	if err != nil {
		return warmup.Config{}, err
	}
	extensions, err = extensions.Enabled(config.Extensions)
	if err != nil {
		return warmup.Config{}, err
	}
	return warmup.Config{
		Area:         area,
		Secret:       getenv(secretEnv),
		SecretEnv:    secretEnv,
		MarkerValue:  config.MarkerValue,
		Extensions:   extensions,
		FetchTimeout: config.FetchTimeout,
		MaxRedirects: config.MaxRedirects,
		Logger:       &log.Logger,
	}, nil
}
