package config

import "os"

type Config struct {
	PostgresURI        string
	RedisURI           string
	GraphAPIBaseURL    string
	GraphAPIVersion    string
	SecretKey          string
	Port               string
	InsecureSkipVerify bool
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:     getEnv("POSTGRES_URI", ""),
		RedisURI:        getEnv("REDIS_URI", "127.0.0.1:6379"),
		GraphAPIBaseURL: getEnv("GRAPH_API_BASE_URL", "https://graph.threads.net/"),
		GraphAPIVersion: getEnv("GRAPH_API_VERSION", ""),
		SecretKey:       getEnv("SECRET_KEY", ""),
		Port:            getEnv("PORT", "3000"),
		// REJECT_UNAUTHORIZED=false disables TLS certificate verification
		// against the Graph API. Verification stays on unless explicitly
		// turned off.
		InsecureSkipVerify: getEnv("REJECT_UNAUTHORIZED", "true") == "false",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
