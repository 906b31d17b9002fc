package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StatsQueueName     string
	EventChannelPrefix string

	UserSearchLimit      int
	LeaderboardLimit     int
	ActivityFeedLimit    int
	QuizHistoryLimit     int
	LeagueInviteCodeLen  int
	LeagueDefaultMaxSize int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:              getEnv("API_PORT", "8080"),
		JWTKey:               []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:               time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "user"),
		DBPassword:           getEnv("DB_PASSWORD", "password"),
		DBName:               getEnv("DB_NAME", "quizleague_db"),
		DBSslMode:            getEnv("DB_SSLMODE", "disable"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvAsInt("REDIS_DB", 0),
		StatsQueueName:       getEnv("STATS_QUEUE_NAME", "leaderboard_refresh_queue"),
		EventChannelPrefix:   getEnv("EVENT_CHANNEL_PREFIX", "events"),
		UserSearchLimit:      getEnvAsInt("USER_SEARCH_LIMIT", 20),
		LeaderboardLimit:     getEnvAsInt("LEADERBOARD_LIMIT", 50),
		ActivityFeedLimit:    getEnvAsInt("ACTIVITY_FEED_LIMIT", 20),
		QuizHistoryLimit:     getEnvAsInt("QUIZ_HISTORY_LIMIT", 10),
		LeagueInviteCodeLen:  getEnvAsInt("LEAGUE_INVITE_CODE_LEN", 8),
		LeagueDefaultMaxSize: getEnvAsInt("LEAGUE_DEFAULT_MAX_SIZE", 50),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
