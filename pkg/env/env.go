package env

import "os"

// Get returns the value of the given environment variable or a fallback.
// It covers lookups that happen before the typed config is loaded, such as
// picking the logger output format.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
