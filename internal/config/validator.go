package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateServer(&cfg.Server)
	v.validateVendor(&cfg.Vendor)
	v.validateStore(&cfg.Store)
	v.validateLog(&cfg.Log)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Host == "" {
		v.addError("server.host", cfg.Host, "host required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
	if cfg.ShutdownTimeout <= 0 {
		v.addError("server.shutdown_timeout", cfg.ShutdownTimeout, "must be positive")
	}
}

func (v *Validator) validateVendor(cfg *VendorConfig) {
	// An empty base URL is legal: the service serves the demo catalog.
	// A non-empty one must parse, and needs credentials to go with it.
	if cfg.BaseURL != "" {
		if !isValidURL(cfg.BaseURL) {
			v.addError("vendor.base_url", cfg.BaseURL, "must be a valid http(s) URL")
		}
		if cfg.TokenURL == "" {
			v.addError("vendor.token_url", cfg.TokenURL, "required when vendor.base_url is set")
		} else if !isValidURL(cfg.TokenURL) {
			v.addError("vendor.token_url", cfg.TokenURL, "must be a valid http(s) URL")
		}
		if cfg.APIKey == "" {
			v.addError("vendor.api_key", "", "required when vendor.base_url is set")
		}
	}
	if cfg.MakerPrefix == "" {
		v.addError("vendor.maker_prefix", cfg.MakerPrefix, "maker prefix required")
	}
	if cfg.Timeout <= 0 {
		v.addError("vendor.timeout", cfg.Timeout, "must be positive")
	}
}

func (v *Validator) validateStore(cfg *StoreConfig) {
	validTypes := map[string]bool{
		"json": true, "sqlite": true,
	}
	if !validTypes[cfg.Type] {
		v.addError("store.type", cfg.Type, "must be one of: json, sqlite")
	}
	if cfg.Path == "" {
		v.addError("store.path", cfg.Path, "path required")
	}
}

func (v *Validator) validateLog(cfg *LogConfig) {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[cfg.Level] {
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"auto": true, "text": true, "json": true,
	}
	if !validFormats[cfg.Format] {
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
