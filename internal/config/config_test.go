package config_test

import (
	"testing"
	"time"

	"user-service/internal/apperror"
	"user-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"POSTGRES_SERVICE_HOST": "db.internal",
		"POSTGRES_SERVICE_PORT": "5432",
		"POSTGRES_PASSWORD":     "s3cret",
		"DB_NAME":               "usersdb",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(envFrom(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.Username)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "usersdb", cfg.Database.Database)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, config.ConnectPerRequest, cfg.Database.ConnectMode)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.True(t, cfg.Security.HashPasswords)
	assert.Equal(t, bcrypt.DefaultCost, cfg.Security.BcryptCost)
	assert.False(t, cfg.API.LegacyStatus)
	assert.False(t, cfg.API.LegacyDeleteRoute)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "users.lifecycle", cfg.Kafka.Topic)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "logs", cfg.Log.Dir)
}

func TestLoadLegacyVariableNames(t *testing.T) {
	env := map[string]string{
		"DB_HOST":                "legacy-host",
		"DB_PORT":                "6543",
		"postgres-secret-config": "legacy-pass",
		"db_name":                "legacy-db",
	}

	cfg, err := config.LoadFrom(envFrom(env))
	require.NoError(t, err)

	assert.Equal(t, "legacy-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "legacy-pass", cfg.Database.Password)
	assert.Equal(t, "legacy-db", cfg.Database.Database)
}

func TestLoadPrimaryNamesWinOverAliases(t *testing.T) {
	env := baseEnv()
	env["DB_HOST"] = "ignored"
	env["postgres-secret-config"] = "ignored"

	cfg, err := config.LoadFrom(envFrom(env))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["HTTP_HOST"] = "127.0.0.1"
	env["HTTP_PORT"] = "8081"
	env["POSTGRES_USER"] = "svc"
	env["DB_CONNECT_MODE"] = "pooled"
	env["DB_MAX_OPEN_CONNS"] = "20"
	env["HASH_PASSWORDS"] = "false"
	env["API_LEGACY_STATUS"] = "true"
	env["API_LEGACY_DELETE_ROUTE"] = "1"
	env["KAFKA_ENABLED"] = "true"
	env["KAFKA_BROKERS"] = "k1:9092, k2:9092,"
	env["LOG_LEVEL"] = "DEBUG"
	env["LOG_DIR"] = "-"

	cfg, err := config.LoadFrom(envFrom(env))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.Server.Addr())
	assert.Equal(t, "svc", cfg.Database.Username)
	assert.Equal(t, config.ConnectPooled, cfg.Database.ConnectMode)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.False(t, cfg.Security.HashPasswords)
	assert.True(t, cfg.API.LegacyStatus)
	assert.True(t, cfg.API.LegacyDeleteRoute)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "", cfg.Log.Dir)
}

func TestLoadMissingRequiredValues(t *testing.T) {
	_, err := config.LoadFrom(envFrom(map[string]string{}))
	require.Error(t, err)

	assert.True(t, apperror.Is(err, apperror.KindConfiguration))
	msg := err.Error()
	assert.Contains(t, msg, "POSTGRES_SERVICE_HOST or DB_HOST is required")
	assert.Contains(t, msg, "POSTGRES_SERVICE_PORT or DB_PORT is required")
	assert.Contains(t, msg, "POSTGRES_PASSWORD or postgres-secret-config is required")
	assert.Contains(t, msg, "DB_NAME or db_name is required")
}

func TestLoadInvalidPort(t *testing.T) {
	for _, port := range []string{"abc", "0", "70000", "-1"} {
		t.Run(port, func(t *testing.T) {
			env := baseEnv()
			env["POSTGRES_SERVICE_PORT"] = port

			_, err := config.LoadFrom(envFrom(env))
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.KindConfiguration))
			assert.Contains(t, err.Error(), "POSTGRES_SERVICE_PORT must be a port number")
		})
	}
}

func TestLoadInvalidOptionalValues(t *testing.T) {
	env := baseEnv()
	env["DB_CONNECT_MODE"] = "shared"
	env["HASH_PASSWORDS"] = "maybe"
	env["BCRYPT_COST"] = "99"
	env["LOG_LEVEL"] = "trace"

	_, err := config.LoadFrom(envFrom(env))
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "DB_CONNECT_MODE")
	assert.Contains(t, msg, "HASH_PASSWORDS must be a boolean")
	assert.Contains(t, msg, "BCRYPT_COST must be between")
	assert.Contains(t, msg, "LOG_LEVEL")
}

func TestDSN(t *testing.T) {
	db := config.DatabaseConfig{
		Host:           "localhost",
		Port:           5432,
		Username:       "postgres",
		Password:       "it's a secret",
		Database:       "users",
		SSLMode:        "disable",
		ConnectTimeout: 3 * time.Second,
	}

	assert.Equal(t,
		`host=localhost port=5432 user=postgres password='it\'s a secret' dbname=users sslmode=disable connect_timeout=3`,
		db.DSN())
	assert.Equal(t,
		"host=localhost port=5432 user=postgres dbname=users sslmode=disable connect_timeout=3",
		db.Redacted())
}

func TestLoadLogWithoutDatabaseSettings(t *testing.T) {
	log := config.LoadLog(envFrom(map[string]string{"LOG_LEVEL": "DEBUG", "LOG_DIR": "-"}))

	assert.Equal(t, "debug", log.Level)
	assert.Equal(t, "", log.Dir)

	assert.Equal(t, config.LogConfig{Level: "info", Dir: "logs"}, config.LoadLog(envFrom(nil)))
}
