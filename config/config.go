// Package config holds the service configuration and its validation.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// OCRConfig holds text recognition configuration
type OCRConfig struct {
	TessdataPrefix string   // Directory holding traineddata files, empty for the system default
	Languages      []string // Tesseract language codes, tried together
}

// NERConfig holds entity recognition configuration
type NERConfig struct {
	RecognizerName string // Which recognizer backend to load
	ModelPath      string // ONNX model file (onnx recognizer only)
	TokenizerPath  string // Tokenizer file (onnx recognizer only)
	LabelMapPath   string // id2label JSON file (onnx recognizer only)
}

// GeocodingConfig holds address normalization configuration
type GeocodingConfig struct {
	Enabled bool          // Whether to call the geocoding API at all
	APIKey  string        // Google Maps API key
	Timeout time.Duration // Per-call timeout
	QPS     float64       // Client-side rate limit
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level string // logrus level name
	JSON  bool   // Emit JSON instead of text
}

// Config holds all configuration for the card extraction service
type Config struct {
	ListenAddr     string // Address the HTTP server binds, ":PORT" form
	MaxUploadBytes int64  // Upload size cap enforced before decoding
	PhoneRegion    string // Default region for phone numbers without a country code
	SentryDSN      string // Empty disables error reporting
	OCR            OCRConfig
	NER            NERConfig
	Geocoding      GeocodingConfig
	Logging        LoggingConfig
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		ListenAddr:     ":8080",
		MaxUploadBytes: 10 << 20,
		PhoneRegion:    "US",
		OCR: OCRConfig{
			Languages: []string{"eng"},
		},
		NER: NERConfig{
			RecognizerName: "prose",
			ModelPath:      "model/ner/model.onnx",
			TokenizerPath:  "model/ner/tokenizer.json",
			LabelMapPath:   "model/ner/labels.json",
		},
		Geocoding: GeocodingConfig{
			Enabled: false,
			Timeout: 5 * time.Second,
			QPS:     5,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// ValidateConfig checks the configuration before the service starts.
func ValidateConfig(cfg *Config) error {
	if err := validatePort(cfg.ListenAddr, "ListenAddr"); err != nil {
		return err
	}
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MaxUploadBytes must be positive, got %d", cfg.MaxUploadBytes)
	}
	if len(cfg.PhoneRegion) != 2 {
		return fmt.Errorf("PhoneRegion must be a two-letter region code, got '%s'", cfg.PhoneRegion)
	}
	if len(cfg.OCR.Languages) == 0 {
		return fmt.Errorf("OCR.Languages must not be empty")
	}
	if cfg.NER.RecognizerName == "" {
		return fmt.Errorf("NER.RecognizerName must not be empty")
	}
	if cfg.Geocoding.Enabled && cfg.Geocoding.APIKey == "" {
		return fmt.Errorf("Geocoding.APIKey is required when geocoding is enabled")
	}
	if cfg.Geocoding.Timeout <= 0 {
		return fmt.Errorf("Geocoding.Timeout must be positive, got %s", cfg.Geocoding.Timeout)
	}
	return nil
}

// validatePort checks that an address is in ":PORT" form with a port
// between 1 and 65535.
func validatePort(addr string, fieldName string) error {
	if !strings.HasPrefix(addr, ":") {
		return fmt.Errorf("%s must be in ':PORT' format, got '%s'", fieldName, addr)
	}
	port, err := strconv.Atoi(addr[1:])
	if err != nil {
		return fmt.Errorf("%s port is not a number: '%s'", fieldName, addr)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s port must be between 1 and 65535, got %d", fieldName, port)
	}
	return nil
}
