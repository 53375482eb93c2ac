package util

import (
	"os"
	"strconv"
)

// GetenvStr lee una variable de entorno con default.
func GetenvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetenvInt lee un entero positivo de entorno con default.
func GetenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
