// Package config reads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Addr        string
	DBPath      string
	DatabaseURL string
	LogLevel    string
	// GitHubFeedURL is the host serving the public activity feeds.
	GitHubFeedURL string
	// Poll enables background fetching in serve.
	Poll bool
}

func Load() Config {
	return Config{
		Addr:          getenv("FEEDCOLUMNS_ADDR", ":8080"),
		DBPath:        getenv("FEEDCOLUMNS_DB_PATH", "./data/feedcolumns.db"),
		DatabaseURL:   getenv("FEEDCOLUMNS_DATABASE_URL", ""),
		LogLevel:      strings.ToLower(getenv("FEEDCOLUMNS_LOG_LEVEL", "info")),
		GitHubFeedURL: getenv("FEEDCOLUMNS_GITHUB_FEED_URL", "https://github.com"),
		Poll:          getenvBool("FEEDCOLUMNS_POLL", true),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
