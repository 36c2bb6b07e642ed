package config

import (
	"reflect"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"BOT_TOKEN", "ADMIN_TELEGRAM_IDS", "CHANNEL_USERNAME",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "SQLITE_PATH",
	"APP_ENV", "LOG_LEVEL", "UPLOAD_MAX_SIZE", "WORKER_COUNT", "RATE_LIMIT_PER_USER",
	"SESSION_STORE", "SESSION_IDLE_MINUTES",
}

// setEnv blanks every config variable, then applies vars for this test only
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadConfig(t *testing.T) {
	setEnv(t, map[string]string{
		"BOT_TOKEN":          "test_bot_token",
		"DB_PASSWORD":        "test_password",
		"ADMIN_TELEGRAM_IDS": "111, 222,,333",
	})

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.BotToken != "test_bot_token" {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, "test_bot_token")
	}
	if cfg.DBDriver != DriverPostgres {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverPostgres)
	}
	if !reflect.DeepEqual(cfg.AdminIDs, []int64{111, 222, 333}) {
		t.Errorf("AdminIDs = %v", cfg.AdminIDs)
	}
	if cfg.SessionStore != SessionStoreMemory || cfg.SessionIdleMinutes != 60 {
		t.Errorf("session defaults = %q/%d", cfg.SessionStore, cfg.SessionIdleMinutes)
	}
	if cfg.UploadMaxSize != 5242880 {
		t.Errorf("UploadMaxSize = %d", cfg.UploadMaxSize)
	}
	if !cfg.IsAdmin(222) || cfg.IsAdmin(444) {
		t.Error("IsAdmin() does not match ADMIN_TELEGRAM_IDS")
	}
}

func TestLoadConfig_SQLite(t *testing.T) {
	setEnv(t, map[string]string{
		"BOT_TOKEN":     "token",
		"DB_DRIVER":     "SQLite",
		"SQLITE_PATH":   "./data/quiz.db",
		"SESSION_STORE": "db",
	})

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverSQLite)
	}
	if cfg.GetDSN() != "data/quiz.db" {
		t.Errorf("GetDSN() = %q", cfg.GetDSN())
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Missing BOT_TOKEN",
			envVars: map[string]string{"DB_PASSWORD": "password"},
		},
		{
			name:    "Missing DB_PASSWORD",
			envVars: map[string]string{"BOT_TOKEN": "token"},
		},
		{
			name:    "Unknown driver",
			envVars: map[string]string{"BOT_TOKEN": "token", "DB_DRIVER": "mysql"},
		},
		{
			name:    "Unknown session store",
			envVars: map[string]string{"BOT_TOKEN": "token", "DB_PASSWORD": "password", "SESSION_STORE": "redis"},
		},
		{
			name:    "Bad admin id",
			envVars: map[string]string{"BOT_TOKEN": "token", "DB_PASSWORD": "password", "ADMIN_TELEGRAM_IDS": "12,abc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.envVars)

			if _, err := LoadConfig(); err == nil {
				t.Error("LoadConfig() expected error, got nil")
			}
		})
	}
}

func TestValidateProductionSecurity(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name: "Valid production config",
			cfg: &Config{
				AppEnv:    "production",
				DBDriver:  DriverPostgres,
				DBSSLMode: "require",
				AdminIDs:  []int64{123456789},
			},
			shouldErr: false,
		},
		{
			name: "Development mode - no validation",
			cfg: &Config{
				AppEnv:    "development",
				DBSSLMode: "disable",
			},
			shouldErr: false,
		},
		{
			name: "Production without SSL",
			cfg: &Config{
				AppEnv:    "production",
				DBDriver:  DriverPostgres,
				DBSSLMode: "disable",
				AdminIDs:  []int64{123456789},
			},
			shouldErr: true,
		},
		{
			name: "Production sqlite ignores SSL",
			cfg: &Config{
				AppEnv:   "production",
				DBDriver: DriverSQLite,
				AdminIDs: []int64{123456789},
			},
			shouldErr: false,
		},
		{
			name: "Production without admins",
			cfg: &Config{
				AppEnv:    "production",
				DBDriver:  DriverPostgres,
				DBSSLMode: "require",
			},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateProductionSecurity()
			if tt.shouldErr && err == nil {
				t.Error("ValidateProductionSecurity() expected error, got nil")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("ValidateProductionSecurity() unexpected error = %v", err)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBDriver:   DriverPostgres,
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "testuser",
		DBPassword: "testpass",
		DBName:     "testdb",
		DBSSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	dsn := cfg.GetDSN()

	if dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

func TestGetSessionIdleTimeout(t *testing.T) {
	cfg := &Config{SessionIdleMinutes: 5}

	if got := cfg.GetSessionIdleTimeout(); got != 5*time.Minute {
		t.Errorf("GetSessionIdleTimeout() = %v, want 5m", got)
	}

	cfg.SessionIdleMinutes = 0
	if got := cfg.GetSessionIdleTimeout(); got != 0 {
		t.Errorf("GetSessionIdleTimeout() = %v, want 0", got)
	}
}

func TestLoadDatabaseConfig(t *testing.T) {
	setEnv(t, map[string]string{
		"DB_DRIVER":   "sqlite",
		"SQLITE_PATH": "quiz.db",
	})

	cfg, err := LoadDatabaseConfig()
	if err != nil {
		t.Fatalf("LoadDatabaseConfig() error = %v", err)
	}
	if cfg.BotToken != "" || cfg.DBDriver != DriverSQLite {
		t.Errorf("unexpected config: token=%q driver=%q", cfg.BotToken, cfg.DBDriver)
	}

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should still require BOT_TOKEN")
	}

	setEnv(t, map[string]string{"DB_DRIVER": "mysql"})
	if _, err := LoadDatabaseConfig(); err == nil {
		t.Error("LoadDatabaseConfig() should reject an unknown driver")
	}
}
