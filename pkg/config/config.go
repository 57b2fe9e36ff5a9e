package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Solver   SolverConfig
	Exams    ExamConfig
	Seating  SeatingConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SolverConfig bounds the timetable solver's slot grid and demand expansion.
type SolverConfig struct {
	WorkingDayStart  string
	WorkingDayEnd    string
	SlotMinutes      int
	MinSectionSize   int
	StatisticsTTL    time.Duration
	StatisticsCached bool
}

// ExamConfig shapes the coarse exam slot grid.
type ExamConfig struct {
	SlotsPerDay  int
	SlotMinutes  int
	DayStart     string
	HorizonDays  int
	Invigilators bool
}

// SeatingConfig governs seat grid layout.
type SeatingConfig struct {
	Columns int
}

// ExportConfig controls rendered artifacts and their download lifetime.
type ExportConfig struct {
	PDFEnabled bool
	Dir        string
	SignSecret string
	ResultTTL  time.Duration
	Workers    int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Solver = SolverConfig{
		WorkingDayStart:  v.GetString("SOLVER_DAY_START"),
		WorkingDayEnd:    v.GetString("SOLVER_DAY_END"),
		SlotMinutes:      v.GetInt("SOLVER_SLOT_MINUTES"),
		MinSectionSize:   v.GetInt("SOLVER_MIN_SECTION_SIZE"),
		StatisticsTTL:    parseDuration(v.GetString("STATISTICS_CACHE_TTL"), 5*time.Minute),
		StatisticsCached: v.GetBool("STATISTICS_CACHE_ENABLED"),
	}

	cfg.Exams = ExamConfig{
		SlotsPerDay:  v.GetInt("EXAM_SLOTS_PER_DAY"),
		SlotMinutes:  v.GetInt("EXAM_SLOT_MINUTES"),
		DayStart:     v.GetString("EXAM_DAY_START"),
		HorizonDays:  v.GetInt("EXAM_HORIZON_DAYS"),
		Invigilators: v.GetBool("EXAM_INVIGILATORS"),
	}

	cfg.Seating = SeatingConfig{
		Columns: v.GetInt("SEATING_COLUMNS"),
	}

	cfg.Export = ExportConfig{
		PDFEnabled: v.GetBool("EXPORT_PDF_ENABLED"),
		Dir:        v.GetString("EXPORT_DIR"),
		SignSecret: v.GetString("EXPORT_SIGN_SECRET"),
		ResultTTL:  parseDuration(v.GetString("EXPORT_RESULT_TTL"), 24*time.Hour),
		Workers:    v.GetInt("EXPORT_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "scheduling")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_DAY_START", "08:00")
	v.SetDefault("SOLVER_DAY_END", "18:00")
	v.SetDefault("SOLVER_SLOT_MINUTES", 60)
	v.SetDefault("SOLVER_MIN_SECTION_SIZE", 30)
	v.SetDefault("STATISTICS_CACHE_ENABLED", true)

	v.SetDefault("EXAM_SLOTS_PER_DAY", 2)
	v.SetDefault("EXAM_SLOT_MINUTES", 180)
	v.SetDefault("EXAM_DAY_START", "09:00")
	v.SetDefault("EXAM_HORIZON_DAYS", 14)
	v.SetDefault("EXAM_INVIGILATORS", true)

	v.SetDefault("SEATING_COLUMNS", 6)

	v.SetDefault("EXPORT_PDF_ENABLED", true)
	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_SIGN_SECRET", "dev-export-secret")
	v.SetDefault("EXPORT_WORKERS", 2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
