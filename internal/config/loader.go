package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultPort = 1344

type config struct {
	host string
	port int

	openTimeout     time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	continueTimeout time.Duration

	userAgent string

	proxy     string
	dnsServer string
}

func parse() (*config, error) {
	host := getenv("ICAP_HOST", "")
	if host == "" {
		return nil, fmt.Errorf("ICAP_HOST is required")
	}

	port, err := parsePort()
	if err != nil {
		return nil, err
	}

	return &config{
		host:            host,
		port:            port,
		openTimeout:     getenvDuration("ICAP_OPEN_TIMEOUT", 0),
		readTimeout:     getenvDuration("ICAP_READ_TIMEOUT", 0),
		writeTimeout:    getenvDuration("ICAP_WRITE_TIMEOUT", 0),
		continueTimeout: getenvDuration("ICAP_CONTINUE_TIMEOUT", 0),
		userAgent:       getenv("ICAP_USER_AGENT", ""),
		proxy:           getenv("ICAP_SOCKS_PROXY", ""),
		dnsServer:       getenv("ICAP_DNS_SERVER", ""),
	}, nil
}

func loadEnvFile() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}

func parsePort() (int, error) {
	raw := getenv("ICAP_PORT", "")
	if raw == "" {
		return defaultPort, nil
	}
	port, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || port == 0 {
		return 0, fmt.Errorf("invalid ICAP_PORT value")
	}
	return int(port), nil
}

// getenvDuration accepts Go durations ("1.5s") and plain numbers of seconds.
func getenvDuration(key string, def time.Duration) time.Duration {
	raw := getenv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
		return d
	}
	if s, err := strconv.ParseFloat(raw, 64); err == nil && s >= 0 {
		return time.Duration(s * float64(time.Second))
	}
	log.Printf("Invalid %s, falling back to %s", key, def)
	return def
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
