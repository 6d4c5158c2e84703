package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"user-service/internal/apperror"

	"golang.org/x/crypto/bcrypt"
)

const (
	ConnectPerRequest = "per-request"
	ConnectPooled     = "pooled"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	API      APIConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	Database       string
	SSLMode        string
	ConnectMode    string
	MaxOpenConns   int
	MaxIdleConns   int
	MaxLifetime    time.Duration
	ConnectTimeout time.Duration
}

type SecurityConfig struct {
	HashPasswords bool
	BcryptCost    int
}

// APIConfig toggles the wire-compatibility switches of the HTTP layer.
type APIConfig struct {
	LegacyStatus      bool
	LegacyDeleteRoute bool
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type LogConfig struct {
	Level string
	Dir   string
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv and reports every problem
// it finds in a single ConfigurationError.
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := &envReader{getenv: getenv}

	cfg := &Config{
		Server: ServerConfig{
			Host:            env.str("HTTP_HOST", "0.0.0.0"),
			Port:            env.port("HTTP_PORT", 5000),
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           env.required("POSTGRES_SERVICE_HOST", "DB_HOST"),
			Port:           env.requiredPort("POSTGRES_SERVICE_PORT", "DB_PORT"),
			Username:       env.str("POSTGRES_USER", "postgres"),
			Password:       env.required("POSTGRES_PASSWORD", "postgres-secret-config"),
			Database:       env.required("DB_NAME", "db_name"),
			SSLMode:        env.str("DB_SSLMODE", "disable"),
			ConnectMode:    env.str("DB_CONNECT_MODE", ConnectPerRequest),
			MaxOpenConns:   env.integer("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:   env.integer("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    time.Duration(env.integer("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			ConnectTimeout: time.Duration(env.integer("DB_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,
		},
		Security: SecurityConfig{
			HashPasswords: env.boolean("HASH_PASSWORDS", true),
			BcryptCost:    env.integer("BCRYPT_COST", bcrypt.DefaultCost),
		},
		API: APIConfig{
			LegacyStatus:      env.boolean("API_LEGACY_STATUS", false),
			LegacyDeleteRoute: env.boolean("API_LEGACY_DELETE_ROUTE", false),
		},
		Kafka: KafkaConfig{
			Enabled: env.boolean("KAFKA_ENABLED", false),
			Brokers: env.list("KAFKA_BROKERS", "localhost:9092"),
			Topic:   env.str("KAFKA_USER_TOPIC", "users.lifecycle"),
		},
		Log: env.log(),
	}

	env.problems = append(env.problems, cfg.check()...)
	if len(env.problems) > 0 {
		return nil, apperror.Configuration("config.Load", strings.Join(env.problems, "; "))
	}
	return cfg, nil
}

// LoadLog reads only the logging settings, so a logger can exist before the
// rest of the configuration is loaded.
func LoadLog(getenv func(string) string) LogConfig {
	env := &envReader{getenv: getenv}
	return env.log()
}

// check reports semantic problems. Presence and port parsing are already
// reported per variable by the envReader.
func (c *Config) check() []string {
	var problems []string
	db := c.Database
	if db.Username == "" {
		problems = append(problems, "database user is required")
	}
	if db.ConnectMode != ConnectPerRequest && db.ConnectMode != ConnectPooled {
		problems = append(problems, fmt.Sprintf("DB_CONNECT_MODE must be %q or %q, got %q", ConnectPerRequest, ConnectPooled, db.ConnectMode))
	}
	if c.Security.HashPasswords && (c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost) {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		problems = append(problems, "KAFKA_BROKERS and KAFKA_USER_TOPIC are required when Kafka is enabled")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("LOG_LEVEL %q is not one of debug, info, warn, error", c.Log.Level))
	}
	return problems
}

// DSN renders the lib/pq key/value connection string.
func (d DatabaseConfig) DSN() string {
	return d.render(true)
}

// Redacted renders the DSN without the password, for logs.
func (d DatabaseConfig) Redacted() string {
	return d.render(false)
}

func (d DatabaseConfig) render(withPassword bool) string {
	parts := []string{
		"host=" + quote(d.Host),
		"port=" + strconv.Itoa(d.Port),
		"user=" + quote(d.Username),
	}
	if withPassword {
		parts = append(parts, "password="+quote(d.Password))
	}
	parts = append(parts, "dbname="+quote(d.Database), "sslmode="+quote(d.SSLMode))
	if d.ConnectTimeout > 0 {
		parts = append(parts, "connect_timeout="+strconv.Itoa(int(d.ConnectTimeout/time.Second)))
	}
	return strings.Join(parts, " ")
}

func quote(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

type envReader struct {
	getenv   func(string) string
	problems []string
}

func (e *envReader) log() LogConfig {
	return LogConfig{
		Level: strings.ToLower(e.str("LOG_LEVEL", "info")),
		Dir:   e.raw("LOG_DIR", "logs"),
	}
}

func (e *envReader) lookup(keys ...string) (string, string) {
	for _, key := range keys {
		if value := e.getenv(key); strings.TrimSpace(value) != "" {
			return key, value
		}
	}
	return keys[0], ""
}

func (e *envReader) str(key, defaultValue string) string {
	if _, value := e.lookup(key); value != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// raw distinguishes "unset" from "set to empty" by treating a lone "-" as empty.
func (e *envReader) raw(key, defaultValue string) string {
	value := strings.TrimSpace(e.getenv(key))
	switch value {
	case "":
		return defaultValue
	case "-":
		return ""
	}
	return value
}

func (e *envReader) required(keys ...string) string {
	_, value := e.lookup(keys...)
	if value == "" {
		e.problems = append(e.problems, fmt.Sprintf("%s is required", strings.Join(keys, " or ")))
	}
	return value
}

func (e *envReader) requiredPort(keys ...string) int {
	key, value := e.lookup(keys...)
	if value == "" {
		e.problems = append(e.problems, fmt.Sprintf("%s is required", strings.Join(keys, " or ")))
		return 0
	}
	return e.parsePort(key, value)
}

func (e *envReader) port(key string, defaultValue int) int {
	_, value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	return e.parsePort(key, value)
}

func (e *envReader) parsePort(key, value string) int {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port < 1 || port > 65535 {
		e.problems = append(e.problems, fmt.Sprintf("%s must be a port number, got %q", key, value))
		return 0
	}
	return port
}

func (e *envReader) integer(key string, defaultValue int) int {
	_, value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		e.problems = append(e.problems, fmt.Sprintf("%s must be a non-negative integer, got %q", key, value))
		return defaultValue
	}
	return parsed
}

func (e *envReader) boolean(key string, defaultValue bool) bool {
	_, value := e.lookup(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		e.problems = append(e.problems, fmt.Sprintf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return parsed
}

func (e *envReader) list(key, defaultValue string) []string {
	var out []string
	for _, item := range strings.Split(e.str(key, defaultValue), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
