package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// BaseConfig is the root configuration document loaded by the config
// container. Values come from config/app.json with environment overrides.
type BaseConfig struct {
	Server      Server      `json:"server"`
	Auth        Auth        `json:"auth"`
	Persistence Persistence `json:"persistence"`
}

func (c BaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Auth),
		validation.Field(&c.Persistence),
	)
}

func (c BaseConfig) GetServer() Server {
	return c.Server
}

func (c BaseConfig) GetAuth() Auth {
	return c.Auth
}

func (c BaseConfig) GetPersistence() Persistence {
	return c.Persistence
}

type Server struct {
	Address string `json:"address"`
}

func (s Server) Validate() error {
	return nil
}

func (s Server) GetAddress() string {
	if s.Address == "" {
		return ":3000"
	}
	return s.Address
}

// Auth carries the token options. Secrets have no defaults on purpose: the
// service must not boot with a guessable key.
type Auth struct {
	JWTSecret            string   `json:"jwt_secret"`
	JWTExpiration        string   `json:"jwt_expiration"`
	JWTRefreshSecret     string   `json:"jwt_refresh_secret"`
	JWTRefreshExpiration string   `json:"jwt_refresh_expiration"`
	Issuer               string   `json:"issuer"`
	Audience             []string `json:"audience"`
	ContextKey           string   `json:"context_key"`
	AuthScheme           string   `json:"auth_scheme"`
	TokenLookup          string   `json:"token_lookup"`
	RefreshTokenField    string   `json:"refresh_token_field"`
	SigningMethod        string   `json:"signing_method"`
}

func (a Auth) Validate() error {
	err := validation.ValidateStruct(&a,
		validation.Field(&a.JWTSecret, validation.Required, validation.Length(32, 0)),
		validation.Field(&a.JWTRefreshSecret, validation.Required, validation.Length(32, 0)),
		validation.Field(&a.JWTExpiration, validation.Required, validation.By(durationExpression)),
		validation.Field(&a.JWTRefreshExpiration, validation.Required, validation.By(durationExpression)),
	)
	if err != nil {
		return err
	}

	if a.JWTSecret == a.JWTRefreshSecret {
		return fmt.Errorf("auth: jwt_secret and jwt_refresh_secret must differ")
	}

	if a.GetRefreshTokenExpiration() <= a.GetTokenExpiration() {
		return fmt.Errorf("auth: jwt_refresh_expiration must exceed jwt_expiration")
	}

	return nil
}

func (a Auth) GetSigningKey() string {
	return a.JWTSecret
}

func (a Auth) GetRefreshSigningKey() string {
	return a.JWTRefreshSecret
}

func (a Auth) GetTokenExpiration() time.Duration {
	return mustParseDuration(a.JWTExpiration)
}

func (a Auth) GetRefreshTokenExpiration() time.Duration {
	return mustParseDuration(a.JWTRefreshExpiration)
}

func (a Auth) GetSigningMethod() string {
	if a.SigningMethod == "" {
		return "HS256"
	}
	return a.SigningMethod
}

func (a Auth) GetIssuer() string {
	if a.Issuer == "" {
		return "users-api"
	}
	return a.Issuer
}

func (a Auth) GetAudience() []string {
	if len(a.Audience) == 0 {
		return []string{"users-api"}
	}
	return a.Audience
}

func (a Auth) GetContextKey() string {
	if a.ContextKey == "" {
		return "claims"
	}
	return a.ContextKey
}

func (a Auth) GetAuthScheme() string {
	if a.AuthScheme == "" {
		return "Bearer"
	}
	return a.AuthScheme
}

func (a Auth) GetTokenLookup() string {
	if a.TokenLookup == "" {
		return "header:Authorization"
	}
	return a.TokenLookup
}

func (a Auth) GetRefreshTokenField() string {
	if a.RefreshTokenField == "" {
		return "refresh_token"
	}
	return a.RefreshTokenField
}

type Persistence struct {
	Debug                 bool   `json:"debug"`
	Driver                string `json:"driver"`
	DSN                   string `json:"dsn"`
	PingTimeoutExpression string `json:"ping_timeout"`
}

func (p Persistence) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.DSN, validation.Required),
	)
}

func (p Persistence) GetDebug() bool {
	return p.Debug
}

func (p Persistence) GetDriver() string {
	if p.Driver == "" {
		return "sqlite"
	}
	return p.Driver
}

func (p Persistence) GetDSN() string {
	return p.DSN
}

func (p Persistence) GetServer() string {
	return p.DSN
}

func (p Persistence) GetOtelIdentifier() string {
	return ""
}

func (p Persistence) GetPingTimeout() time.Duration {
	if p.PingTimeoutExpression == "" {
		return 10 * time.Second
	}
	return mustParseDuration(p.PingTimeoutExpression)
}

func durationExpression(value interface{}) error {
	expr, _ := value.(string)
	if expr == "" {
		return nil
	}
	if _, err := parseDuration(expr); err != nil {
		return fmt.Errorf("invalid duration %q", expr)
	}
	return nil
}

// parseDuration extends time.ParseDuration with a day suffix so config can
// say "7d" instead of "168h".
func parseDuration(expr string) (time.Duration, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasSuffix(expr, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(expr, "d"), 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(days * 24 * float64(time.Hour)), nil
	}
	return time.ParseDuration(expr)
}

func mustParseDuration(expr string) time.Duration {
	dur, err := parseDuration(expr)
	if err != nil {
		panic(fmt.Sprintf("unable to parse time: expr %s", expr))
	}
	return dur
}
