package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/go-playground/validator/v10"

	"github.com/yourusername/clever-parlay/internal/models"
	"github.com/yourusername/clever-parlay/internal/parlay"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expansionConfigPath          = "testdata/expansion_config.yaml"
	expansionConfigMissingPath   = "testdata/expansion_config_missing.yaml"
	nonexistentConfigPath        = "testdata/nonexistent_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
	expectedNoErrorMsg           = "expected no error, got %v"
	expectedNonNilConfig         = "expected non-nil config"
	cleverParlayName             = "clever-parlay"
	developmentEnv               = "development"
	invalidEnv                   = "invalid"
	localhostHost                = "localhost"
	postgresPort                 = 5432
	postgresPrefix               = "postgres://"
	testAppName                  = "test-app"
	testDBPassword               = "TEST_DB_PASSWORD"
	testMissingVar               = "TEST_MISSING_VAR"
	expandedSecretValue          = "expanded_secret_value"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}
	return cfg
}

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}

	if cfg.App.Name != cleverParlayName {
		t.Errorf("expected app name '%s', got '%s'", cleverParlayName, cfg.App.Name)
	}

	if cfg.App.Environment != developmentEnv {
		t.Errorf("expected environment '%s', got '%s'", developmentEnv, cfg.App.Environment)
	}

	if cfg.Database.Host != localhostHost {
		t.Errorf("expected database host '%s', got '%s'", localhostHost, cfg.Database.Host)
	}

	if cfg.Database.Port != postgresPort {
		t.Errorf("expected database port %d, got %d", postgresPort, cfg.Database.Port)
	}

	if cfg.Kafka.WriteTimeout != 10*time.Second {
		t.Errorf("expected kafka write timeout 10s, got %s", cfg.Kafka.WriteTimeout)
	}

	if len(cfg.Assembly.Tiers) != 3 || cfg.Assembly.Tiers[2].DefaultLegs != 14 {
		t.Errorf("expected three tiers ending with degen default 14, got %+v", cfg.Assembly.Tiers)
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("CLEVER_PARLAY_APP_NAME", testAppName)

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != testAppName {
		t.Errorf("expected app name '%s' from environment, got '%s'", testAppName, cfg.App.Name)
	}
}

// TestLoadWithDefaults tests that defaults fill a missing file
func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Assembly.TimeoutSeconds != 90 {
		t.Errorf("expected assembly timeout 90, got %d", cfg.Assembly.TimeoutSeconds)
	}
	if cfg.Assembly.Policies != parlay.DefaultPolicies() {
		t.Errorf("expected default policies, got %+v", cfg.Assembly.Policies)
	}
	if len(cfg.Assembly.Tiers) != 3 || cfg.Assembly.Tiers[0].Profile != models.RiskSafe {
		t.Errorf("expected default tiers, got %+v", cfg.Assembly.Tiers)
	}
	if cfg.Model.Market != 0.5 || cfg.Model.Direct != 0.3 {
		t.Errorf("expected default model weights, got %+v", cfg.Model)
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	cfg := loadValid(t)

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestMustRegisterPanicsOnBadTag tests that a failed tag registration is not ignored
func TestMustRegisterPanicsOnBadTag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an empty tag")
		}
	}()
	mustRegister(validator.New(), "", validateSport)
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg := loadValid(t)

	cfg.App.Environment = invalidEnv
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
}

// TestValidateRejects tests the custom tags and cross-field rules
func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown tier profile", func(c *Config) { c.Assembly.Tiers[0].Profile = "reckless" }, "Profile"},
		{"bad cron", func(c *Config) { c.Settlement.SweepSchedule = "every five minutes" }, "SweepSchedule"},
		{"unknown stream sport", func(c *Config) { c.ScoreStream.Sports = []string{"cricket"} }, "Sports"},
		{"unknown season sport", func(c *Config) { c.Resolver.SeasonStarts = map[string]string{"curling": "2024-09-01"} }, "SeasonStarts"},
		{"weights off", func(c *Config) { c.Model.Market = 0.6 }, "sum to 1"},
		{"window order", func(c *Config) { c.Resolver.WindowDays = 40 }, "max_window_days"},
		{"tier default outside range", func(c *Config) { c.Assembly.Tiers[1].DefaultLegs = 13 }, "default_legs"},
		{"duplicate tier", func(c *Config) { c.Assembly.Tiers[1].Name = "safe" }, "duplicate tier"},
		{"idle over max", func(c *Config) { c.Database.MaxIdleConnections = 50 }, "max_idle_connections"},
		{"kafka without brokers", func(c *Config) {
			c.Features.KafkaEventsEnabled = true
			c.Kafka.Brokers = nil
		}, "kafka.brokers"},
		{"stream without url", func(c *Config) {
			c.Features.ScoreStreamEnabled = true
			c.ScoreStream.URL = ""
		}, "score_stream.url"},
		{"production without ssl", func(c *Config) { c.App.Environment = "production" }, "SSL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got: %v", tt.want, err)
			}
		})
	}
}

// TestValidateEnvironmentProduction tests production-only checks
func TestValidateEnvironmentProduction(t *testing.T) {
	cfg := loadValid(t)
	cfg.App.Environment = "production"
	cfg.Database.SSLMode = "require"
	cfg.StatsAPI.APIKey = "YOUR_API_KEY"

	if err := ValidateEnvironment(cfg); err == nil {
		t.Fatal("expected error for placeholder stats API key in production")
	}

	cfg.StatsAPI.APIKey = "k-8f2a91"
	if err := ValidateEnvironment(cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
}

// TestGetDatabaseDSN tests DSN generation
func TestGetDatabaseDSN(t *testing.T) {
	cfg := loadValid(t)

	dsn := cfg.GetDatabaseDSN()
	if !strings.HasPrefix(dsn, postgresPrefix) {
		t.Errorf("expected DSN to start with '%s', got '%s'", postgresPrefix, dsn)
	}
}

// TestEnvironmentChecks tests environment check functions
func TestEnvironmentChecks(t *testing.T) {
	dev := &Config{App: AppConfig{Environment: developmentEnv}}
	if !dev.IsDevelopment() || dev.IsProduction() || dev.IsStaging() {
		t.Error("expected only IsDevelopment() to be true")
	}

	prod := &Config{App: AppConfig{Environment: "production"}}
	if !prod.IsProduction() || prod.IsDevelopment() {
		t.Error("expected only IsProduction() to be true")
	}

	staging := &Config{App: AppConfig{Environment: "staging"}}
	if !staging.IsStaging() {
		t.Error("expected IsStaging() to be true")
	}
}

// TestDomainConversions tests building component configs from sections
func TestDomainConversions(t *testing.T) {
	cfg := loadValid(t)

	cc, err := cfg.Resolver.CandidatesConfig()
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cc.CacheTTL != 45*time.Second {
		t.Errorf("expected cache ttl 45s, got %s", cc.CacheTTL)
	}
	start, ok := cc.SeasonStarts[models.SportNFL]
	if !ok || !start.Equal(time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected nfl season start 2024-09-05, got %v", start)
	}

	pc := cfg.Assembly.ParlayConfig()
	if pc.Timeout != 90*time.Second || pc.Select.MatchupCap != 2 {
		t.Errorf("unexpected parlay config %+v", pc)
	}

	if got := cfg.ScoreStream.ScoreStreamSports(); len(got) != 3 || got[0] != models.SportNFL {
		t.Errorf("unexpected score stream sports %v", got)
	}

	if cfg.Settlement.SettlerConfig().SweepBatchSize != 1000 {
		t.Error("expected sweep batch size 1000")
	}

	cfg.Resolver.SeasonStarts["nfl"] = "September"
	if _, err := cfg.Resolver.CandidatesConfig(); err == nil {
		t.Error("expected error for unparseable season start")
	}
}

// TestLoadConfigEnvironmentVariableExpansion tests environment variable expansion in config file
func TestLoadConfigEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv(testDBPassword, expandedSecretValue)

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config with expansion, got %v", err)
	}

	if cfg.Database.Password != expandedSecretValue {
		t.Errorf("expected password '%s' from environment expansion, got '%s'", expandedSecretValue, cfg.Database.Password)
	}
}

// TestLoadConfigMissingEnvironmentVariable tests handling of missing environment variables
func TestLoadConfigMissingEnvironmentVariable(t *testing.T) {
	os.Unsetenv(testMissingVar)

	cfg, err := Load(expansionConfigMissingPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	// os.ExpandEnv replaces unset variables with an empty string
	if cfg.Database.Password != "" {
		t.Errorf("expected empty password, got %q", cfg.Database.Password)
	}
	if err := Validate(cfg); err == nil {
		t.Error("expected validation error for empty database password")
	}
}

type fakeSecrets struct {
	out *secretsmanager.GetSecretValueOutput
	err error
}

func (f fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return f.out, f.err
}

// TestSecretsOverlay tests applying Secrets Manager values to the config
func TestSecretsOverlay(t *testing.T) {
	cfg := loadValid(t)
	client := fakeSecrets{out: &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"database_password":"db-secret","stats_api_key":"stats-secret"}`),
	}}

	secrets, err := fetchSecrets(context.Background(), client, "clever-parlay/prod")
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	overlaySecretsOnConfig(cfg, secrets)

	if cfg.Database.Password != "db-secret" || cfg.StatsAPI.APIKey != "stats-secret" {
		t.Errorf("secrets not applied: %+v", secrets)
	}
	if cfg.Redis.Password != "" {
		t.Errorf("expected redis password untouched, got %q", cfg.Redis.Password)
	}

	_, err = fetchSecrets(context.Background(), fakeSecrets{out: &secretsmanager.GetSecretValueOutput{}}, "empty")
	if err == nil {
		t.Error("expected error for empty secret")
	}

	_, err = fetchSecrets(context.Background(), fakeSecrets{err: errors.New("access denied")}, "denied")
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("expected access denied error, got %v", err)
	}
}
