package config

import (
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("expected default listen address ':8080', got '%s'", cfg.ListenAddr)
	}
	if cfg.MaxUploadBytes != 10<<20 {
		t.Errorf("expected default upload cap of 10MiB, got %d", cfg.MaxUploadBytes)
	}
	if cfg.NER.RecognizerName != "prose" {
		t.Errorf("expected default recognizer 'prose', got '%s'", cfg.NER.RecognizerName)
	}
	if cfg.Geocoding.Enabled {
		t.Error("expected geocoding to be disabled by default")
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("expected the default configuration to validate, got: %v", err)
	}
}

func TestValidatePort(t *testing.T) {
	testCases := []struct {
		name      string
		addr      string
		expectErr bool
	}{
		{name: "valid port", addr: ":8080", expectErr: false},
		{name: "lowest port", addr: ":1", expectErr: false},
		{name: "highest port", addr: ":65535", expectErr: false},
		{name: "missing colon", addr: "8080", expectErr: true},
		{name: "port zero", addr: ":0", expectErr: true},
		{name: "port too high", addr: ":65536", expectErr: true},
		{name: "not a number", addr: ":http", expectErr: true},
		{name: "empty", addr: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePort(tc.addr, "ListenAddr")
			if tc.expectErr && err == nil {
				t.Errorf("expected an error for '%s', but got nil", tc.addr)
			}
			if !tc.expectErr && err != nil {
				t.Errorf("expected no error for '%s', but got: %v", tc.addr, err)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	testCases := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{
			name:      "negative upload cap",
			mutate:    func(c *Config) { c.MaxUploadBytes = -1 },
			errSubstr: "MaxUploadBytes",
		},
		{
			name:      "bad phone region",
			mutate:    func(c *Config) { c.PhoneRegion = "USA" },
			errSubstr: "PhoneRegion",
		},
		{
			name:      "no ocr languages",
			mutate:    func(c *Config) { c.OCR.Languages = nil },
			errSubstr: "OCR.Languages",
		},
		{
			name:      "empty recognizer name",
			mutate:    func(c *Config) { c.NER.RecognizerName = "" },
			errSubstr: "RecognizerName",
		},
		{
			name:      "geocoding enabled without key",
			mutate:    func(c *Config) { c.Geocoding.Enabled = true },
			errSubstr: "APIKey",
		},
		{
			name:      "zero geocoding timeout",
			mutate:    func(c *Config) { c.Geocoding.Timeout = 0 },
			errSubstr: "Timeout",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected a validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.errSubstr) {
				t.Errorf("expected error mentioning '%s', got: %v", tc.errSubstr, err)
			}
		})
	}
}
