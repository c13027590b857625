package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Environment variable names of the required secrets.
const (
	EnvAlchemyAPIKey = "ALCHEMY_API_KEY"
	EnvPrivateKey    = "PRIVATE_KEY"
)

// RequiredSecrets lists the secrets in the order they are checked and reported.
var RequiredSecrets = []string{EnvAlchemyAPIKey, EnvPrivateKey}

const redacted = "<redacted>"

// Secrets holds the two credentials needed to reach the network and sign.
// Values are never rendered by String or LogValue.
type Secrets struct {
	AlchemyAPIKey string `env:"ALCHEMY_API_KEY" validate:"required"`
	PrivateKey    string `env:"PRIVATE_KEY" validate:"required"`
}

// String implements fmt.Stringer without exposing the values.
func (s Secrets) String() string {
	return fmt.Sprintf("Secrets{%s:%s, %s:%s}", EnvAlchemyAPIKey, redacted, EnvPrivateKey, redacted)
}

// LogValue implements slog.LogValuer. Only presence is reported.
func (s Secrets) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String(EnvAlchemyAPIKey, presence(s.AlchemyAPIKey)),
		slog.String(EnvPrivateKey, presence(s.PrivateKey)),
	)
}

var secretsValidator = newSecretsValidator()

func newSecretsValidator() *validator.Validate {
	v := validator.New()
	// Report field errors by environment variable name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("env")
	})
	return v
}

// ValidateSecrets checks that every required secret is present and non-empty in env.
// Whitespace-only values count as empty. The returned error is a *MissingSecretError
// naming each missing key; no partial Secrets is ever returned.
func ValidateSecrets(env map[string]string) (*Secrets, error) {
	s := Secrets{
		AlchemyAPIKey: strings.TrimSpace(env[EnvAlchemyAPIKey]),
		PrivateKey:    strings.TrimSpace(env[EnvPrivateKey]),
	}

	if err := secretsValidator.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, fmt.Errorf("validate secrets: %w", err)
		}
		missing := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			missing = append(missing, fe.Field())
		}
		return nil, &MissingSecretError{Keys: missing}
	}

	return &s, nil
}

// ReadEnv collects the required secrets from the process environment and, if it exists,
// the dotenv file at envFile. A variable set in the process environment wins over the
// file even when it is empty, in which case the secret is reported missing. A missing
// file is not an error.
func ReadEnv(envFile string) (map[string]string, error) {
	v := viper.New()
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s: %w", envFile, err)
		}
	}

	env := make(map[string]string, len(RequiredSecrets))
	for _, key := range RequiredSecrets {
		if val := v.GetString(key); val != "" {
			env[key] = val
		}
	}
	return env, nil
}

// LogPresence logs whether each required secret is loaded. Values are never logged.
func LogPresence(logger *slog.Logger, env map[string]string) {
	for _, key := range RequiredSecrets {
		logger.Info("secret status",
			slog.String("name", key),
			slog.String("status", presence(strings.TrimSpace(env[key]))),
		)
	}
}

func presence(v string) string {
	if v == "" {
		return "not loaded"
	}
	return "loaded"
}

// LoadSecrets reads the environment and envFile, logs the presence of each
// required secret and validates them. It never touches the network.
func LoadSecrets(logger *slog.Logger, envFile string) (*Secrets, error) {
	env, err := ReadEnv(envFile)
	if err != nil {
		return nil, err
	}
	LogPresence(logger, env)
	return ValidateSecrets(env)
}
