package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DB       *DBconfig
	RabbitMq *RabbitMqconfig
	Srv      *Serviceconfig
	Log      *Loggerconfig
	App      *Appconfig
}

type DBconfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RabbitMqconfig struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string
}

type Serviceconfig struct {
	SurveyServicePort string
	AuthServicePort   string
}

type Loggerconfig struct {
	Level string
}

type Appconfig struct {
	JwtSecret string

	// Average vehicle speed assumed when synthesizing stop arrival
	// times from straight-line distance. See services.FixedSpeedModel.
	AssumedSpeedKmh float64
}

func New() (*Config, error) {
	// Load .env into environment if present, real env wins.
	_ = godotenv.Load()

	getEnv := func(key, def string) string {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			fmt.Printf("invalid %v, using default %v\n", key, def)
			return def
		}
		return val
	}

	getEnvFloat := func(key string, def float64) float64 {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil || val <= 0 {
			fmt.Printf("invalid %v, using default %v\n", key, def)
			return def
		}
		return val
	}

	cnf := &Config{
		DB: &DBconfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "mapper_user"),
			Password: getEnv("DB_PASSWORD", "mapper_pass"),
			Database: getEnv("DB_NAME", "mapper_db"),
		},
		RabbitMq: &RabbitMqconfig{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnvInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    getEnv("RABBITMQ_VHOST", ""),
		},
		Srv: &Serviceconfig{
			SurveyServicePort: getEnv("SURVEY_SERVICE_PORT", "3000"),
			AuthServicePort:   getEnv("AUTH_SERVICE_PORT", "3001"),
		},
		Log: &Loggerconfig{
			Level: getEnv("LOG_LEVEL", "INFO"),
		},
		App: &Appconfig{
			JwtSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
			AssumedSpeedKmh: getEnvFloat("ASSUMED_SPEED_KMH", 20),
		},
	}

	return cnf, nil
}
