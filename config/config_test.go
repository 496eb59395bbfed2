package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "default configuration",
			envVars: map[string]string{
				"ENVIRONMENT": "development",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Environment)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.False(t, cfg.Server.TLS.Enabled)
				assert.Equal(t, "memory", cfg.Store.Driver)
				assert.True(t, cfg.Store.Seed)
				assert.Equal(t, "memory", cfg.Session.Store)
				assert.Equal(t, "admin", cfg.Session.DefaultRole)
				assert.Equal(t, DefaultSessionSecret, cfg.Session.Secret)
				assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
				assert.Equal(t, 800*time.Millisecond, cfg.Tasks.StepDelay)
				assert.Equal(t, 5*time.Minute, cfg.Tasks.ConfirmationTTL)
				assert.Equal(t, "0 8 * * *", cfg.Scheduler.ReminderSpec)
				assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "qms", cfg.Database.User)
			},
		},
		{
			name: "postgres store with redis sessions",
			envVars: map[string]string{
				"STORE_DRIVER":   "postgres",
				"DATABASE_URL":   "postgres://qms:pw@db.internal:5433/qms?sslmode=require",
				"SESSION_STORE":  "redis",
				"REDIS_URL":      "redis://cache:6379/2",
				"SESSION_TTL":    "30m",
				"DB_INIT_SCHEMA": "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres", cfg.Store.Driver)
				assert.Equal(t, "host=db.internal port=5433 database=qms", cfg.Database.LogString())
				assert.False(t, cfg.Database.InitSchema)
				assert.Equal(t, "redis", cfg.Session.Store)
				assert.Equal(t, "redis://cache:6379/2", cfg.Redis.URL)
				assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
			},
		},
		{
			name: "production with a real secret",
			envVars: map[string]string{
				"ENVIRONMENT":    "production",
				"SESSION_SECRET": "a-long-random-value",
				"SERVER_PORT":    "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.IsProduction())
				assert.False(t, cfg.IsDevelopment())
				assert.Equal(t, 9000, cfg.Server.Port)
			},
		},
		{
			name: "task and scheduler overrides",
			envVars: map[string]string{
				"TASK_STEP_DELAY":         "50ms",
				"TASK_MAX":                "10",
				"DELETE_CONFIRMATION_TTL": "1m",
				"SCHEDULER_ENABLED":       "false",
				"CORS_ALLOWED_ORIGINS":    "https://qms.example.com, https://admin.example.com",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 50*time.Millisecond, cfg.Tasks.StepDelay)
				assert.Equal(t, 10, cfg.Tasks.MaxTasks)
				assert.Equal(t, time.Minute, cfg.Tasks.ConfirmationTTL)
				assert.False(t, cfg.Scheduler.Enabled)
				assert.Equal(t, []string{"https://qms.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
			},
		},
		{
			name: "observability configuration",
			envVars: map[string]string{
				"LOG_LEVEL":       "debug",
				"LOG_FORMAT":      "text",
				"METRICS_ENABLED": "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Observability.LogLevel)
				assert.Equal(t, "text", cfg.Observability.LogFormat)
				assert.False(t, cfg.Observability.MetricsEnabled)
			},
		},
		{
			name: "PORT env var takes precedence over SERVER_PORT",
			envVars: map[string]string{
				"PORT":        "9443",
				"SERVER_PORT": "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9443, cfg.Server.Port)
			},
		},
		{
			name: "production with default secret",
			envVars: map[string]string{
				"ENVIRONMENT": "production",
			},
			wantErr: true,
		},
		{
			name: "unknown store driver",
			envVars: map[string]string{
				"STORE_DRIVER": "mongo",
			},
			wantErr: true,
		},
		{
			name: "unknown session store",
			envVars: map[string]string{
				"SESSION_STORE": "memcached",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := New(context.Background())

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment: "development",
		Store:       StoreConfig{Driver: "memory"},
		Session: SessionConfig{
			Store:  "memory",
			Secret: "secret",
			TTL:    time.Hour,
		},
		Tasks: TasksConfig{
			StepDelay:       time.Millisecond,
			MaxTasks:        10,
			MaxDownloads:    10,
			ConfirmationTTL: time.Minute,
		},
		Activity: ActivityConfig{BufferSize: 10, Workers: 1},
		Observability: ObservabilityConfig{
			LogLevel: "info",
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid development config",
			mutate: func(c *Config) {},
		},
		{
			name: "postgres without database host",
			mutate: func(c *Config) {
				c.Store.Driver = "postgres"
			},
			wantErr: true,
			errMsg:  "database configuration required",
		},
		{
			name: "postgres without database user",
			mutate: func(c *Config) {
				c.Store.Driver = "postgres"
				c.Database = DatabaseConfig{Host: "localhost", Database: "qms"}
			},
			wantErr: true,
			errMsg:  "database user is required",
		},
		{
			name: "postgres with connection string",
			mutate: func(c *Config) {
				c.Store.Driver = "postgres"
				c.Database = DatabaseConfig{ConnectionString: "postgres://localhost/qms"}
			},
		},
		{
			name: "redis sessions without url",
			mutate: func(c *Config) {
				c.Session.Store = "redis"
			},
			wantErr: true,
			errMsg:  "redis URL is required",
		},
		{
			name: "negative step delay",
			mutate: func(c *Config) {
				c.Tasks.StepDelay = -time.Second
			},
			wantErr: true,
			errMsg:  "step delay",
		},
		{
			name: "scheduler without spec",
			mutate: func(c *Config) {
				c.Scheduler.Enabled = true
			},
			wantErr: true,
			errMsg:  "reminder spec",
		},
		{
			name: "missing log level",
			mutate: func(c *Config) {
				c.Observability.LogLevel = ""
			},
			wantErr: true,
			errMsg:  "log level is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsProduction())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		want        bool
	}{
		{"development", "development", true},
		{"dev", "dev", true},
		{"production", "production", false},
		{"staging", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			assert.Equal(t, tt.want, cfg.IsDevelopment())
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, cfg.DSN())
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{
		Host: "0.0.0.0",
		Port: 8080,
	}

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue int
		want         int
	}{
		{"valid int", "TEST_INT", "42", 10, 42},
		{"empty value", "TEST_INT", "", 10, 10},
		{"invalid int", "TEST_INT", "not-a-number", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsInt(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", "TEST_BOOL", "true", false, true},
		{"false", "TEST_BOOL", "false", true, false},
		{"empty value", "TEST_BOOL", "", true, true},
		{"invalid bool", "TEST_BOOL", "not-a-bool", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsBool(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		value        string
		defaultValue time.Duration
		want         time.Duration
	}{
		{"valid duration", "TEST_DURATION", "30s", 10 * time.Second, 30 * time.Second},
		{"empty value", "TEST_DURATION", "", 10 * time.Second, 10 * time.Second},
		{"invalid duration", "TEST_DURATION", "not-a-duration", 10 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			if tt.value != "" {
				os.Setenv(tt.key, tt.value)
			}
			got := getEnvAsDuration(tt.key, tt.defaultValue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetEnvAsSlice(t *testing.T) {
	os.Clearenv()
	assert.Equal(t, []string{"a"}, getEnvAsSlice("TEST_SLICE", []string{"a"}))

	os.Setenv("TEST_SLICE", " x , ,y ")
	assert.Equal(t, []string{"x", "y"}, getEnvAsSlice("TEST_SLICE", nil))

	os.Setenv("TEST_SLICE", " , ")
	assert.Equal(t, []string{"a"}, getEnvAsSlice("TEST_SLICE", []string{"a"}))
}
