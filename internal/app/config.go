package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BotToken          string
	AdminIDs          []int64
	KinopoiskAPIKeys  []string
	KinopoiskBaseURL  string
	KinopoiskRPS      int
	JacredEndpoint    string
	UserAgent         string
	RedisURL          string
	LogLevel          string
	LogFormat         string
	RequestTimeout    time.Duration
	StateTTL          time.Duration
	ConvertTimeout    time.Duration
	TorrentDir        string
	MetricsAddr       string
	SpamLimit         int
	SpamWindow        time.Duration
	PollTimeout       time.Duration
	TelegramAPIURL    string
}

func LoadConfig() Config {
	return Config{
		BotToken:         strings.TrimSpace(os.Getenv("BOT_TOKEN")),
		AdminIDs:         getEnvInt64List("ADMIN_IDS"),
		KinopoiskAPIKeys: getEnvList("KINOPOISK_API_KEYS"),
		KinopoiskBaseURL: getEnv("KINOPOISK_BASE_URL", "https://kinopoiskapiunofficial.tech"),
		KinopoiskRPS:     getEnvInt("KINOPOISK_RPS", 5),
		JacredEndpoint:   getEnv("JACRED_ENDPOINT", "https://jacred.xyz"),
		UserAgent:        getEnv("HTTP_USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"),
		RedisURL:         getEnv("REDIS_URL", ""),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
		RequestTimeout:   time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		StateTTL:         time.Duration(getEnvInt("STATE_TTL_MINUTES", 60)) * time.Minute,
		ConvertTimeout:   time.Duration(getEnvInt("CONVERT_TIMEOUT_SECONDS", 30)) * time.Second,
		TorrentDir:       getEnv("TORRENT_DIR", ""),
		MetricsAddr:      getEnv("METRICS_ADDR", ":9090"),
		SpamLimit:        getEnvInt("SPAM_LIMIT", 110),
		SpamWindow:       time.Duration(getEnvInt("SPAM_WINDOW_SECONDS", 3)) * time.Second,
		PollTimeout:      time.Duration(getEnvInt("POLL_TIMEOUT_SECONDS", 30)) * time.Second,
		TelegramAPIURL:   getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

func getEnvInt64List(key string) []int64 {
	values := getEnvList(key)
	if len(values) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
