package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int
	LogMode      string
	CORSOrigins  []string

	Store    StoreConfig
	Editor   EditorConfig
	Analysis AnalysisConfig
}

// StoreConfig описывает, где хранится документ проекта.
type StoreConfig struct {
	Backend     string // memory, sqlite, redis, postgres
	SQLitePath  string
	RedisAddr   string
	PostgresDSN string
	Key         string
}

type EditorConfig struct {
	HistoryDepth    int
	MaxVersions     int
	AutoSaveSeconds int
	CheckpointSpec  string
	GridSize        float64
	SnapToGrid      bool
	CanvasWidth     int
	CanvasHeight    int
}

type AnalysisConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout int
	RPS     float64
	Burst   int
}

// AutoSaveInterval возвращает минимальный интервал между автоверсиями.
func (e EditorConfig) AutoSaveInterval() time.Duration {
	return time.Duration(e.AutoSaveSeconds) * time.Second
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("[CONFIG] no .env file found, using environment")
	}

	cfg := &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
		LogMode:      getEnv("LOG_MODE", "dev"),
		CORSOrigins:  getEnvAsList("CORS_ORIGINS"),
		Store: StoreConfig{
			Backend:     strings.ToLower(getEnv("STORE_BACKEND", "sqlite")),
			SQLitePath:  getEnv("STORE_SQLITE_PATH", "data/db/floorplans.db"),
			RedisAddr:   getEnv("REDIS_ADDR", ""),
			PostgresDSN: getEnv("POSTGRES_DSN", ""),
			Key:         getEnv("STORE_KEY", "floorplans-storage"),
		},
		Editor: EditorConfig{
			HistoryDepth:    getEnvAsInt("HISTORY_DEPTH", 50),
			MaxVersions:     getEnvAsInt("MAX_VERSIONS", 20),
			AutoSaveSeconds: getEnvAsInt("AUTOSAVE_SECONDS", 30),
			CheckpointSpec:  getEnv("CHECKPOINT_SPEC", "@every 30s"),
			GridSize:        getEnvAsFloat("GRID_SIZE", 20),
			SnapToGrid:      getEnvAsBool("SNAP_TO_GRID", true),
			CanvasWidth:     getEnvAsInt("CANVAS_WIDTH", 1200),
			CanvasHeight:    getEnvAsInt("CANVAS_HEIGHT", 800),
		},
		Analysis: AnalysisConfig{
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o"),
			Timeout: getEnvAsInt("ANALYSIS_TIMEOUT", 120),
			RPS:     getEnvAsFloat("ANALYSIS_RPS", 1),
			Burst:   getEnvAsInt("ANALYSIS_BURST", 2),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "sqlite":
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("config: REDIS_ADDR is required for redis backend")
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required for postgres backend")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Store.Key == "" {
		return fmt.Errorf("config: STORE_KEY must not be empty")
	}
	if c.Editor.HistoryDepth <= 0 {
		return fmt.Errorf("config: HISTORY_DEPTH must be positive")
	}
	if c.Editor.MaxVersions <= 0 {
		return fmt.Errorf("config: MAX_VERSIONS must be positive")
	}
	if c.Editor.GridSize <= 0 {
		return fmt.Errorf("config: GRID_SIZE must be positive")
	}
	if c.Editor.CanvasWidth <= 0 || c.Editor.CanvasHeight <= 0 {
		return fmt.Errorf("config: canvas size must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvAsList разбирает список через запятую, пустые элементы пропускаются.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
