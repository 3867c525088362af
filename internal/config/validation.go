package config

import (
	"fmt"
	"math"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/yourusername/clever-parlay/internal/models"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	mustRegister(v, "environment", validateEnvironment)
	mustRegister(v, "loglevel", validateLogLevel)
	mustRegister(v, "sport", validateSport)
	mustRegister(v, "riskprofile", validateRiskProfile)
	mustRegister(v, "cron", validateCron)

	return &CustomValidator{validator: v}
}

// mustRegister panics when a tag cannot be registered, so a bad tag never
// silently disables a check.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register %q validation: %v", tag, err))
	}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateSport(fl validator.FieldLevel) bool {
	_, ok := models.ParseSport(fl.Field().String())
	return ok
}

func validateRiskProfile(fl validator.FieldLevel) bool {
	switch models.RiskProfile(fl.Field().String()) {
	case models.RiskConservative, models.RiskBalanced, models.RiskDegen, models.RiskSafe:
		return true
	default:
		return false
	}
}

func validateCron(fl validator.FieldLevel) bool {
	_, err := cronParser.Parse(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	// Validate production environment requirements
	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	// Validate connection pool settings
	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	// Blend weights must cover the whole probability
	w := cfg.Model
	if sum := w.Market + w.Stats + w.Situational; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("model weights market+stats+situational must sum to 1, got %.3f", sum)
	}

	if cfg.Resolver.WindowDays > cfg.Resolver.MaxWindowDays {
		return fmt.Errorf("resolver window_days cannot exceed max_window_days")
	}

	seen := make(map[string]bool, len(cfg.Assembly.Tiers))
	for _, tier := range cfg.Assembly.Tiers {
		if seen[tier.Name] {
			return fmt.Errorf("duplicate tier %q", tier.Name)
		}
		seen[tier.Name] = true
		if tier.MinLegs > tier.MaxLegs {
			return fmt.Errorf("tier %s: min_legs cannot exceed max_legs", tier.Name)
		}
		if tier.DefaultLegs < tier.MinLegs || tier.DefaultLegs > tier.MaxLegs {
			return fmt.Errorf("tier %s: default_legs must be within min_legs and max_legs", tier.Name)
		}
	}

	// Enabled integrations need their endpoints
	if cfg.Features.RedisCacheEnabled && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when the redis cache is enabled")
	}
	if cfg.Features.KafkaEventsEnabled && (len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required when kafka events are enabled")
	}
	if cfg.Features.ScoreStreamEnabled && cfg.ScoreStream.URL == "" {
		return fmt.Errorf("score_stream.url is required when the score stream is enabled")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "sport":
			errMsg += fmt.Sprintf("- Field '%s' has unknown sport '%v'\n", field, value)
		case "riskprofile":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: conservative, balanced, degen, safe\n", field)
		case "cron":
			errMsg += fmt.Sprintf("- Field '%s' is not a valid cron expression: '%v'\n", field, value)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
		if isTestCredential(cfg.StatsAPI.APIKey) {
			return fmt.Errorf("production environment should not use a test stats API key")
		}
	}

	if cfg.IsProduction() && cfg.Features.KafkaEventsEnabled && cfg.Kafka.RequiredAcks == 0 {
		return fmt.Errorf("production kafka producer must wait for acknowledgement")
	}

	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
