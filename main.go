package main

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hannes/cardscan/config"
	"github.com/hannes/cardscan/extract"
	"github.com/hannes/cardscan/geocode"
	"github.com/hannes/cardscan/ner"
	"github.com/hannes/cardscan/ocr"
	"github.com/hannes/cardscan/server"
)

func main() {
	envFile := flag.String("env", "", "path to a .env file with configuration overrides")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logrus.WithError(err).Fatalf("failed to load env file %s", *envFile)
		}
	} else {
		// Best effort; a missing .env is fine.
		_ = godotenv.Load()
	}

	// Load configuration
	cfg := config.DefaultConfig()

	// Override configuration with environment variables
	loadConfigFromEnv(cfg)

	if err := config.ValidateConfig(cfg); err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	configureLogging(cfg.Logging)
	logger := logrus.WithField("service", "cardscan")

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN}); err != nil {
			logger.WithError(err).Warn("sentry initialization failed, continuing without it")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	engine := ocr.NewTesseractEngine(cfg.OCR.TessdataPrefix)

	manager, err := ner.NewManager(cfg.NER.RecognizerName, ner.Settings{
		ModelPath:     cfg.NER.ModelPath,
		TokenizerPath: cfg.NER.TokenizerPath,
		LabelMapPath:  cfg.NER.LabelMapPath,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to load entity recognizer")
	}
	defer func() {
		if closeErr := manager.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("failed to close entity recognizer")
		}
	}()

	normalizer := buildNormalizer(cfg.Geocoding, logger)

	pipeline := extract.NewPipeline(engine, manager, normalizer, cfg.OCR.Languages, cfg.PhoneRegion, logger)

	srv := server.NewServer(cfg, pipeline, manager, logger)
	if err := srv.Start(); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}

// buildNormalizer returns the configured geocoding backend, degrading to
// the disabled one when geocoding is off or the client cannot be built.
func buildNormalizer(cfg config.GeocodingConfig, logger *logrus.Entry) geocode.Normalizer {
	if !cfg.Enabled {
		return geocode.Disabled{}
	}
	normalizer, err := geocode.NewGoogleNormalizer(cfg.APIKey, cfg.Timeout, cfg.QPS)
	if err != nil {
		logger.WithError(err).Warn("geocoding client unavailable, addresses stay unnormalized")
		return geocode.Disabled{}
	}
	return normalizer
}

func configureLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}

// loadConfigFromEnv loads configuration from environment variables
func loadConfigFromEnv(cfg *config.Config) {
	// Server configuration
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}

	if maxBytes := os.Getenv("MAX_UPLOAD_BYTES"); maxBytes != "" {
		if n, err := strconv.ParseInt(maxBytes, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}

	if region := os.Getenv("PHONE_REGION"); region != "" {
		cfg.PhoneRegion = strings.ToUpper(region)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		cfg.SentryDSN = dsn
	}

	// OCR configuration
	if prefix := os.Getenv("TESSDATA_PREFIX"); prefix != "" {
		cfg.OCR.TessdataPrefix = prefix
	}

	if languages := os.Getenv("OCR_LANGUAGES"); languages != "" {
		cfg.OCR.Languages = strings.Split(languages, ",")
	}

	// Entity recognizer configuration
	if name := os.Getenv("NER_RECOGNIZER"); name != "" {
		cfg.NER.RecognizerName = name
	}

	if path := os.Getenv("NER_MODEL_PATH"); path != "" {
		cfg.NER.ModelPath = path
	}

	if path := os.Getenv("NER_TOKENIZER_PATH"); path != "" {
		cfg.NER.TokenizerPath = path
	}

	if path := os.Getenv("NER_LABEL_MAP_PATH"); path != "" {
		cfg.NER.LabelMapPath = path
	}

	// Geocoding configuration
	if enabled := os.Getenv("GEOCODING_ENABLED"); enabled != "" {
		cfg.Geocoding.Enabled = enabled == "true"
	}

	if key := os.Getenv("GOOGLE_MAPS_API_KEY"); key != "" {
		cfg.Geocoding.APIKey = key
	}

	if timeout := os.Getenv("GEOCODING_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Geocoding.Timeout = d
		}
	}

	if qps := os.Getenv("GEOCODING_QPS"); qps != "" {
		if f, err := strconv.ParseFloat(qps, 64); err == nil {
			cfg.Geocoding.QPS = f
		}
	}

	// Logging configuration
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if jsonLogs := os.Getenv("LOG_JSON"); jsonLogs != "" {
		cfg.Logging.JSON = jsonLogs == "true"
	}
}
