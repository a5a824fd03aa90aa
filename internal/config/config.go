// Package config loads function configuration from the environment, resolving
// secrets from SSM Parameter Store when only a parameter name is given.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/chandanbangre/hikeonAssessment/internal/security"
)

const (
	DefaultAPIVersion = "2024-01"
	DefaultScopes     = "write_products,read_shipping,write_shipping"
)

type Config struct {
	Env string

	ShopifyAPIKey     string
	ShopifyAPISecret  string
	ShopifyScopes     string
	ShopifyAPIVersion string
	AppURL            string

	// TokenEncKey is the 32-byte AES key used for offline access tokens.
	TokenEncKey []byte

	SessionsTable      string
	OAuthStateTable    string
	WebhookDedupeTable string
	GuardTable         string

	// GuardTTL is the requested lease length. The app raises it to cover a full
	// seed batch at the Admin client timeout.
	GuardTTL time.Duration

	EventsTopicArn       string
	PrivacyArchiveBucket string

	AdminAPIRPS   float64
	AdminAPIBurst int
}

// ParameterStore is the subset of the SSM client used to resolve secrets.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Load reads the environment. ps may be nil when no *_PARAM variables are set.
func Load(ctx context.Context, ps ParameterStore) (Config, error) {
	cfg := Config{
		Env:                  getenv("APP_ENV", "prod"),
		ShopifyAPIKey:        strings.TrimSpace(os.Getenv("SHOPIFY_API_KEY")),
		ShopifyScopes:        getenv("SHOPIFY_SCOPES", DefaultScopes),
		ShopifyAPIVersion:    getenv("SHOPIFY_API_VERSION", DefaultAPIVersion),
		AppURL:               strings.TrimRight(strings.TrimSpace(os.Getenv("SHOPIFY_APP_URL")), "/"),
		SessionsTable:        strings.TrimSpace(os.Getenv("SESSIONS_TABLE")),
		OAuthStateTable:      strings.TrimSpace(os.Getenv("OAUTH_STATE_TABLE")),
		WebhookDedupeTable:   strings.TrimSpace(os.Getenv("WEBHOOK_DEDUPE_TABLE")),
		GuardTable:           strings.TrimSpace(os.Getenv("GUARD_TABLE")),
		GuardTTL:             parseDuration(os.Getenv("GUARD_TTL"), 30*time.Second),
		EventsTopicArn:       strings.TrimSpace(os.Getenv("EVENTS_TOPIC_ARN")),
		PrivacyArchiveBucket: strings.TrimSpace(os.Getenv("PRIVACY_ARCHIVE_BUCKET")),
		AdminAPIRPS:          parseFloat(os.Getenv("ADMIN_API_RPS"), 2),
		AdminAPIBurst:        parseInt(os.Getenv("ADMIN_API_BURST"), 4),
	}

	secret, err := secretValue(ctx, ps, "SHOPIFY_API_SECRET")
	if err != nil {
		return Config{}, err
	}
	cfg.ShopifyAPISecret = secret

	keyB64, err := secretValue(ctx, ps, "TOKEN_ENC_KEY_B64")
	if err != nil {
		return Config{}, err
	}
	if keyB64 != "" {
		key, err := security.LoadKeyFromBase64(keyB64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TOKEN_ENC_KEY_B64: %w", err)
		}
		cfg.TokenEncKey = key
	}

	return cfg, nil
}

// RequireApp reports the settings the embedded app function cannot run without.
func (c Config) RequireApp() error {
	var missing []string
	if c.ShopifyAPIKey == "" {
		missing = append(missing, "SHOPIFY_API_KEY")
	}
	if c.ShopifyAPISecret == "" {
		missing = append(missing, "SHOPIFY_API_SECRET")
	}
	if c.AppURL == "" {
		missing = append(missing, "SHOPIFY_APP_URL")
	}
	if len(c.TokenEncKey) == 0 {
		missing = append(missing, "TOKEN_ENC_KEY_B64")
	}
	if c.SessionsTable == "" {
		missing = append(missing, "SESSIONS_TABLE")
	}
	if c.OAuthStateTable == "" {
		missing = append(missing, "OAUTH_STATE_TABLE")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing config: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) IsDev() bool { return c.Env == "dev" }

// secretValue prefers the plain variable and falls back to <name>_PARAM in SSM.
// A *_B64 suffix is dropped when forming the parameter variable name.
func secretValue(ctx context.Context, ps ParameterStore, name string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v, nil
	}
	paramVar := strings.TrimSuffix(name, "_B64") + "_PARAM"
	paramName := strings.TrimSpace(os.Getenv(paramVar))
	if paramName == "" {
		return "", nil
	}
	if ps == nil {
		return "", errors.New(paramVar + " set but no parameter store client")
	}
	out, err := ps.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("ssm get %s: %w", paramName, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("ssm parameter %s has no value", paramName)
	}
	return strings.TrimSpace(aws.ToString(out.Parameter.Value)), nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseFloat(v string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
