package config

import (
	"log"
	"os"
	"strconv"
)

// Get returns the named environment variable, or fallback when it is unset
// or empty. Composition roots load .env beforehand via godotenv.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetInt reads an integer environment variable. A value that does not parse
// logs a warning and yields the fallback rather than failing startup.
func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

// MustGet returns the named environment variable or exits the process.
// Used for credentials the service cannot run without.
func MustGet(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("%s is required", key)
	}
	return v
}
