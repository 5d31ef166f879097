package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr             string
	DBPath           string
	CVEDBPath        string
	ScannerURL       string
	ScannerTimeout   time.Duration
	NVDBaseURL       string
	NVDAPIKey        string
	ConfirmThreshold int
	AutoEnrich       bool
	Debug            bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("SIGHTLINE_ADDR", ":8080")
	cfg.DBPath = getEnv("SIGHTLINE_DB", getDefaultDBPath("sightline.db"))
	cfg.CVEDBPath = getEnv("SIGHTLINE_CVE_DB", getDefaultDBPath("cve_cache.db"))
	cfg.ScannerURL = getEnv("SIGHTLINE_SCANNER_URL", "http://localhost:9000")
	cfg.NVDBaseURL = getEnv("SIGHTLINE_NVD_URL", "")
	cfg.NVDAPIKey = getEnv("SIGHTLINE_NVD_KEY", "")
	cfg.ConfirmThreshold = getEnvInt("SIGHTLINE_CONFIRM_THRESHOLD", 512)
	cfg.AutoEnrich = getEnvBool("SIGHTLINE_AUTO_ENRICH", true)
	scannerTimeout := getEnvInt("SIGHTLINE_SCANNER_TIMEOUT", 1800)

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to SQLite database")
	flag.StringVar(&cfg.CVEDBPath, "cve-db", cfg.CVEDBPath, "Path to the CVE cache database")
	flag.StringVar(&cfg.ScannerURL, "scanner", cfg.ScannerURL, "Base URL of the scan engine")
	flag.StringVar(&cfg.NVDBaseURL, "nvd-url", cfg.NVDBaseURL, "NVD API base URL (empty for the public endpoint)")
	flag.StringVar(&cfg.NVDAPIKey, "nvd-key", cfg.NVDAPIKey, "NVD API key")
	flag.IntVar(&cfg.ConfirmThreshold, "confirm-threshold", cfg.ConfirmThreshold, "Host count above which scans need confirmation")
	flag.BoolVar(&cfg.AutoEnrich, "auto-enrich", cfg.AutoEnrich, "Run CVE enrichment automatically after scans complete")
	flag.IntVar(&scannerTimeout, "scanner-timeout", scannerTimeout, "Scan engine timeout in seconds")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")

	flag.Parse()

	cfg.ScannerTimeout = time.Duration(scannerTimeout) * time.Second

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in the user's home
// directory, creating ~/.sightline if needed.
func getDefaultDBPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return name
	}

	dir := filepath.Join(home, ".sightline")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .sightline directory, using current dir: %v", err)
		return name
	}

	return filepath.Join(dir, name)
}
