package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Consul   ConsulConfig
	Auth     AuthConfig
	Bot      BotConfig
	Client   ClientConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Host           string
	ServiceName    string
	ServiceAddress string
	ServiceID      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowOrigins   []string
	MaxUploadBytes int64
}

type MongoDBConfig struct {
	URI      string
	Database string
	PoolSize uint64
	Timeout  time.Duration
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	StatsTTL time.Duration
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

type ConsulConfig struct {
	ConsulAddress string
}

// AuthConfig guards the question-bank write routes. An empty secret leaves them open.
type AuthConfig struct {
	AdminJWTSecret string
}

type BotConfig struct {
	Token        string
	PollTimeout  time.Duration
	Debug        bool
	AdminChatIDs []int64
}

// ClientConfig is used by processes that talk to the API instead of the database.
type ClientConfig struct {
	APIBaseURL      string
	APIToken        string
	DataDir         string
	RequestTimeout  time.Duration
	StudySetSize    int
	AutosaveDelay   time.Duration
	DefaultPractice int
}

type LogConfig struct {
	Dir string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	serviceName := getEnv("SERVICE_NAME", "quizbank")
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3000"),
			Host:           getEnv("HOST", "0.0.0.0"),
			ServiceName:    serviceName,
			ServiceAddress: getEnv("SERVICE_ADDRESS", "quizbank"),
			ServiceID:      serviceName + "-" + getEnv("HOSTNAME", "local"),
			ReadTimeout:    getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
			AllowOrigins:   getEnvAsList("CORS_ALLOW_ORIGINS", []string{"http://localhost:4200"}),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) << 20,
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017/quiz-app"),
			Database: getEnv("MONGODB_DATABASE", "quiz-app"),
			PoolSize: getEnvAsUint64("MONGODB_POOL_SIZE", 50),
			Timeout:  getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			StatsTTL: getEnvAsDuration("REDIS_STATS_TTL", 5*time.Minute),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "quizbank.events"),
		},
		Consul: ConsulConfig{
			ConsulAddress: getEnv("CONSUL_ADDR", ""),
		},
		Auth: AuthConfig{
			AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		},
		Bot: BotConfig{
			Token:        getEnv("TELEGRAM_BOT_TOKEN", ""),
			PollTimeout:  getEnvAsDuration("BOT_POLL_TIMEOUT", 10*time.Second),
			Debug:        getEnvAsBool("BOT_DEBUG", false),
			AdminChatIDs: getEnvAsInt64List("BOT_ADMIN_IDS"),
		},
		Client: ClientConfig{
			APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:3000/api"),
			APIToken:        getEnv("API_TOKEN", ""),
			DataDir:         getEnv("DATA_DIR", "data"),
			RequestTimeout:  getEnvAsDuration("API_TIMEOUT", 10*time.Second),
			StudySetSize:    getEnvAsInt("STUDY_SET_SIZE", 20),
			AutosaveDelay:   getEnvAsDuration("AUTOSAVE_DELAY", time.Second),
			DefaultPractice: getEnvAsInt("PRACTICE_QUESTIONS", 20),
		},
		Log: LogConfig{
			Dir: getEnv("LOG_DIR", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("error retrieve int env var: %s", err)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value, exists := os.LookupEnv(key); exists {
		uintVal, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			log.Printf("error retrieve uint64 env var: %s", err)
			return defaultValue
		}
		return uintVal
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		duration, err := time.ParseDuration(value)
		if err != nil {
			log.Printf("error retrieve duration env var: %s", err)
			return defaultValue
		}
		return duration
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		b, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("error retrieve bool env var: %s", err)
			return defaultValue
		}
		return b
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsInt64List(key string) []int64 {
	var ids []int64
	for _, s := range getEnvAsList(key, nil) {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			log.Printf("error retrieve int64 list env var %s: %s", key, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
