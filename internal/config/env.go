package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

var ErrConversionFailed = errors.New("failed to convert environment variable with key to value")

func errConversionFailed(key string, typeName string) error {
	return fmt.Errorf("key: %s type: %s: %w", key, typeName, ErrConversionFailed)
}

func GetStringOrDefault(key string, defaultVal string) string {
	if val, found := os.LookupEnv(key); found && val != "" {
		return val
	}

	return defaultVal
}

func GetIntOrDefault(key string, defaultVal int) (int, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, errConversionFailed(key, "int")
	}

	return n, nil
}

func GetInt64OrDefault(key string, defaultVal int64) (int64, error) {
	val, found := os.LookupEnv(key)
	if !found || val == "" {
		return defaultVal, nil
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, errConversionFailed(key, "int64")
	}

	return n, nil
}
