// Package config loads the adapter configuration from a YAML file with
// environment variable overrides, and can watch the file for changes.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/johanhenningsson4-hash/VerifonePayment/internal/faults"
)

// DefaultLogFileName is the terminal SDK log file placed in the system
// temp directory when no path is configured.
const DefaultLogFileName = "psdk.log"

// Config is the full adapter configuration.
type Config struct {
	DeviceIPAddress    string `yaml:"device_ip_address"`
	ConnectionType     string `yaml:"connection_type"`
	DefaultUsername    string `yaml:"default_username"`
	DefaultPassword    string `yaml:"default_password"`
	DefaultShiftNumber string `yaml:"default_shift_number"`

	LogFilePath   string `yaml:"log_file_path"`
	DeleteLogFile bool   `yaml:"delete_log_file"`

	ConnectionTimeoutSeconds  int `yaml:"connection_timeout_seconds"`
	TransactionTimeoutSeconds int `yaml:"transaction_timeout_seconds"`

	// ListenAddr serves health and metrics; empty disables the server.
	ListenAddr string `yaml:"listen_addr"`

	// JournalPath is the sqlite transaction journal; empty disables it.
	JournalPath string `yaml:"journal_path"`

	// ReceiptDir receives archived receipt exports; empty disables
	// archiving.
	ReceiptDir string `yaml:"receipt_dir"`

	// LogLevel sets the zerolog level for the process.
	LogLevel string `yaml:"log_level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		DeviceIPAddress:           "127.0.0.1",
		ConnectionType:            "tcpip",
		DefaultUsername:           "username",
		DefaultPassword:           "password",
		DefaultShiftNumber:        "shift",
		LogFilePath:               filepath.Join(os.TempDir(), DefaultLogFileName),
		DeleteLogFile:             false,
		ConnectionTimeoutSeconds:  30,
		TransactionTimeoutSeconds: 60,
		LogLevel:                  "info",
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; the defaults
// plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults apply
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setStr(&c.DeviceIPAddress, "VFP_DEVICE_IP_ADDRESS")
	setStr(&c.ConnectionType, "VFP_CONNECTION_TYPE")
	setStr(&c.DefaultUsername, "VFP_DEFAULT_USERNAME")
	setStr(&c.DefaultPassword, "VFP_DEFAULT_PASSWORD")
	setStr(&c.DefaultShiftNumber, "VFP_DEFAULT_SHIFT_NUMBER")
	setStr(&c.LogFilePath, "VFP_LOG_FILE_PATH")
	setStr(&c.ListenAddr, "VFP_LISTEN_ADDR")
	setStr(&c.JournalPath, "VFP_JOURNAL_PATH")
	setStr(&c.ReceiptDir, "VFP_RECEIPT_DIR")
	setStr(&c.LogLevel, "VFP_LOG_LEVEL")

	if v := os.Getenv("VFP_DELETE_LOG_FILE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DeleteLogFile = b
		}
	}
	if v := os.Getenv("VFP_CONNECTION_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ConnectionTimeoutSeconds = n
		}
	}
	if v := os.Getenv("VFP_TRANSACTION_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TransactionTimeoutSeconds = n
		}
	}
}

// Validate checks the invariants every valid configuration holds.
func (c Config) Validate() error {
	if c.DeviceIPAddress == "" {
		return faults.Validation("empty_device_ip", "device ip address must not be blank")
	}
	if c.ConnectionType == "" {
		return faults.Validation("empty_connection_type", "connection type must not be blank")
	}
	if c.DefaultUsername == "" {
		return faults.Validation("empty_username", "default username must not be blank")
	}
	if c.DefaultPassword == "" {
		return faults.Validation("empty_password", "default password must not be blank")
	}
	if c.DefaultShiftNumber == "" {
		return faults.Validation("empty_shift", "default shift number must not be blank")
	}
	if c.ConnectionTimeoutSeconds <= 0 {
		return faults.Validation("non_positive_timeout", "connection timeout must be > 0, got %d", c.ConnectionTimeoutSeconds)
	}
	if c.TransactionTimeoutSeconds <= 0 {
		return faults.Validation("non_positive_timeout", "transaction timeout must be > 0, got %d", c.TransactionTimeoutSeconds)
	}
	return nil
}

// ConnectionTimeout returns the connect bound as a duration.
func (c Config) ConnectionTimeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSeconds) * time.Second
}

// TransactionTimeout returns the transaction bound as a duration.
func (c Config) TransactionTimeout() time.Duration {
	return time.Duration(c.TransactionTimeoutSeconds) * time.Second
}

// Summary renders the configuration for logs, without credentials.
func (c Config) Summary() string {
	return fmt.Sprintf("device=%s connection=%s username=%s shift=%s connect_timeout=%ds transaction_timeout=%ds delete_log=%t",
		c.DeviceIPAddress, c.ConnectionType, c.DefaultUsername, c.DefaultShiftNumber,
		c.ConnectionTimeoutSeconds, c.TransactionTimeoutSeconds, c.DeleteLogFile)
}

// PrepareLogFile applies the delete-on-start policy and returns the
// effective SDK log path.
func (c Config) PrepareLogFile() (string, error) {
	path := c.LogFilePath
	if path == "" {
		path = filepath.Join(os.TempDir(), DefaultLogFileName)
	}
	if c.DeleteLogFile {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("delete log file %s: %w", path, err)
		}
	}
	return path, nil
}
