// Package config handles Neo4j-compatible configuration via environment variables.
//
// NornicDB uses environment variables for configuration to maintain compatibility with
// Neo4j tooling and deployment workflows. All Neo4j environment variables are supported,
// plus NornicDB-specific extensions prefixed with NORNICDB_.
//
// Configuration is loaded from environment variables using LoadFromEnv() and can be
// validated with Validate() before use.
//
// Example Usage:
//
//	config := config.LoadFromEnv()
//	if err := config.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//
//	fmt.Printf("Exporting from: %s\n", config.Database.DataDir)
//
// Environment Variables:
//
// Neo4j-Compatible:
//   - NEO4J_AUTH="username/password" or "none"
//   - NEO4J_dbms_directories_data="./data"
//
// NornicDB-Specific (export):
//   - NORNICDB_EXPORT_BATCH_SIZE=500
//   - NORNICDB_EXPORT_MAX_RETRIES=5
//   - NORNICDB_EXPORT_OUTPUT_DIR="./export"
//
// For a complete list, see the Config struct field documentation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all NornicDB configuration loaded from environment variables.
//
// Configuration is organized into logical sections:
//   - Auth: Authentication and authorization
//   - Database: Storage settings
//   - Logging: Logging configuration
//   - Export: Snapshot export engine tuning (NornicDB-specific)
//
// Use LoadFromEnv() to create a Config from environment variables.
type Config struct {
	// Authentication (NEO4J_AUTH format: "username/password" or "none")
	Auth AuthConfig

	// Database settings
	Database DatabaseConfig

	// Logging
	Logging LoggingConfig

	// Export tuning (NornicDB-specific)
	Export ExportConfig
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	// Enabled controls whether authentication is required
	Enabled bool
	// InitialUsername is the default admin username
	InitialUsername string
	// InitialPassword is the default admin password
	InitialPassword string
	// MinPasswordLength for password policy
	MinPasswordLength int
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// DataDir is the directory for data storage
	DataDir string
	// DefaultDatabase name
	DefaultDatabase string
	// ReadOnly mode
	ReadOnly bool
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (DEBUG, INFO, WARN, ERROR)
	Level string
	// Format (json, text)
	Format string
	// Output path (stdout, stderr, or file path)
	Output string
}

// ExportConfig holds tuning for the streaming JSONL export engine
// (see pkg/export). Field-level validation happens in Validate(); the
// export engine itself only ever sees an already-validated Config.
type ExportConfig struct {
	// OutputDir is the directory the export file is written into.
	OutputDir string

	// BatchSize is the number of records requested per paginator fetch.
	BatchSize int

	// MaxRetries, RetryDelay, MaxRetryDelay parameterize the retry policy
	// wrapped around every database call.
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// QueryTimeout bounds each individual database call.
	QueryTimeout time.Duration

	// SkipSchemaCollection omits labels/types from the metadata header.
	SkipSchemaCollection bool

	// ValidateJSONOutput re-parses each record before writing it, trading
	// throughput for an extra well-formedness guarantee.
	ValidateJSONOutput bool

	// AllowInsecure skips TLS verification on the source connection.
	AllowInsecure bool

	// JSONBufferSizeKB sizes the writer's byte buffer.
	JSONBufferSizeKB int

	// Path serialization limits.
	MaxPathLength     int
	PathFullLimit     int
	PathCompactLimit  int
	PathPropertyDepth int

	// Depth-band limits for nested value serialization.
	MaxNestedDepth       int
	NestedShallowDepth   int
	NestedReferenceDepth int

	// Collection and label truncation limits.
	MaxCollectionItems       int
	MaxLabelsPerNode         int
	MaxLabelsInReferenceMode int
	MaxLabelsInPathCompact   int

	// EnableHashedIDs includes the content-addressed stable_id on
	// nodes and relationships.
	EnableHashedIDs bool

	// MaxMemoryMB is a preflight guard only; not enforced at runtime.
	MaxMemoryMB int

	// ProgressInterval throttles progress callbacks.
	ProgressInterval time.Duration
}

// LoadFromEnv loads configuration from environment variables.
//
// All values have sensible defaults, so LoadFromEnv() can be called without
// any environment variables set.
func LoadFromEnv() *Config {
	config := &Config{}

	// Authentication - NEO4J_AUTH format: "username/password" or "none"
	authStr := getEnv("NEO4J_AUTH", "none")
	if authStr == "none" {
		config.Auth.Enabled = false
		config.Auth.InitialUsername = "admin"
		config.Auth.InitialPassword = "admin"
	} else {
		config.Auth.Enabled = true
		parts := strings.SplitN(authStr, "/", 2)
		if len(parts) == 2 {
			config.Auth.InitialUsername = parts[0]
			config.Auth.InitialPassword = parts[1]
		} else {
			config.Auth.InitialUsername = "admin"
			config.Auth.InitialPassword = authStr
		}
	}
	config.Auth.MinPasswordLength = getEnvInt("NEO4J_dbms_security_auth_minimum__password__length", 8)

	// Database settings
	config.Database.DataDir = getEnv("NEO4J_dbms_directories_data", "./data")
	config.Database.DefaultDatabase = getEnv("NEO4J_dbms_default__database", "nornicdb")
	config.Database.ReadOnly = getEnvBool("NEO4J_dbms_read__only", false)

	// Logging settings
	config.Logging.Level = getEnv("NEO4J_dbms_logs_debug_level", "INFO")
	config.Logging.Format = getEnv("NORNICDB_LOG_FORMAT", "text")
	config.Logging.Output = getEnv("NORNICDB_LOG_OUTPUT", "stdout")

	// Export settings
	config.Export.OutputDir = getEnv("NORNICDB_EXPORT_OUTPUT_DIR", "./export")
	config.Export.BatchSize = getEnvInt("NORNICDB_EXPORT_BATCH_SIZE", 500)
	config.Export.MaxRetries = getEnvInt("NORNICDB_EXPORT_MAX_RETRIES", 5)
	config.Export.RetryDelay = getEnvDuration("NORNICDB_EXPORT_RETRY_DELAY_MS", 200*time.Millisecond)
	config.Export.MaxRetryDelay = getEnvDuration("NORNICDB_EXPORT_MAX_RETRY_DELAY_MS", 10*time.Second)
	config.Export.QueryTimeout = getEnvDuration("NORNICDB_EXPORT_QUERY_TIMEOUT_SECONDS", 30*time.Second)
	config.Export.SkipSchemaCollection = getEnvBool("NORNICDB_EXPORT_SKIP_SCHEMA_COLLECTION", false)
	config.Export.ValidateJSONOutput = getEnvBool("NORNICDB_EXPORT_VALIDATE_JSON_OUTPUT", false)
	config.Export.AllowInsecure = getEnvBool("NORNICDB_EXPORT_ALLOW_INSECURE", false)
	config.Export.JSONBufferSizeKB = getEnvInt("NORNICDB_EXPORT_JSON_BUFFER_SIZE_KB", 64)
	config.Export.MaxPathLength = getEnvInt("NORNICDB_EXPORT_MAX_PATH_LENGTH", 20000)
	config.Export.PathFullLimit = getEnvInt("NORNICDB_EXPORT_PATH_FULL_LIMIT", 1000)
	config.Export.PathCompactLimit = getEnvInt("NORNICDB_EXPORT_PATH_COMPACT_LIMIT", 10000)
	config.Export.PathPropertyDepth = getEnvInt("NORNICDB_EXPORT_PATH_PROPERTY_DEPTH", 3)
	config.Export.MaxNestedDepth = getEnvInt("NORNICDB_EXPORT_MAX_NESTED_DEPTH", 10)
	config.Export.NestedShallowDepth = getEnvInt("NORNICDB_EXPORT_NESTED_SHALLOW_DEPTH", 3)
	config.Export.NestedReferenceDepth = getEnvInt("NORNICDB_EXPORT_NESTED_REFERENCE_DEPTH", 6)
	config.Export.MaxCollectionItems = getEnvInt("NORNICDB_EXPORT_MAX_COLLECTION_ITEMS", 1000)
	config.Export.MaxLabelsPerNode = getEnvInt("NORNICDB_EXPORT_MAX_LABELS_PER_NODE", 50)
	config.Export.MaxLabelsInReferenceMode = getEnvInt("NORNICDB_EXPORT_MAX_LABELS_IN_REFERENCE_MODE", 5)
	config.Export.MaxLabelsInPathCompact = getEnvInt("NORNICDB_EXPORT_MAX_LABELS_IN_PATH_COMPACT", 3)
	config.Export.EnableHashedIDs = getEnvBool("NORNICDB_EXPORT_ENABLE_HASHED_IDS", false)
	config.Export.MaxMemoryMB = getEnvInt("NORNICDB_EXPORT_MAX_MEMORY_MB", 0)
	config.Export.ProgressInterval = getEnvDuration("NORNICDB_EXPORT_PROGRESS_INTERVAL_MS", 2*time.Second)

	return config
}

// Validate checks the configuration for logical errors and invalid values.
//
// Call Validate() after LoadFromEnv() and before using the Config.
func (c *Config) Validate() error {
	if c.Auth.Enabled {
		if c.Auth.InitialUsername == "" {
			return fmt.Errorf("authentication enabled but no username provided")
		}
		if len(c.Auth.InitialPassword) < c.Auth.MinPasswordLength {
			return fmt.Errorf("password must be at least %d characters", c.Auth.MinPasswordLength)
		}
	}

	if c.Export.BatchSize <= 0 {
		return fmt.Errorf("invalid export batch size: %d", c.Export.BatchSize)
	}
	if c.Export.MaxRetries < 0 {
		return fmt.Errorf("invalid export max retries: %d", c.Export.MaxRetries)
	}
	if c.Export.MaxNestedDepth <= 0 {
		return fmt.Errorf("invalid export max nested depth: %d", c.Export.MaxNestedDepth)
	}
	if c.Export.NestedShallowDepth > c.Export.NestedReferenceDepth ||
		c.Export.NestedReferenceDepth > c.Export.MaxNestedDepth {
		return fmt.Errorf("export depth bands must satisfy shallow <= reference <= max (got %d <= %d <= %d)",
			c.Export.NestedShallowDepth, c.Export.NestedReferenceDepth, c.Export.MaxNestedDepth)
	}
	if c.Export.PathFullLimit > c.Export.PathCompactLimit {
		return fmt.Errorf("export path_full_limit (%d) must be <= path_compact_limit (%d)",
			c.Export.PathFullLimit, c.Export.PathCompactLimit)
	}
	if c.Export.OutputDir == "" {
		return fmt.Errorf("export output directory must not be empty")
	}

	return nil
}

// String returns a safe string representation of the Config.
//
// Sensitive values like passwords are NOT included in the output, making
// this safe for logging.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Auth: %v, DataDir: %s, ExportOutputDir: %s, ExportBatchSize: %d}",
		c.Auth.Enabled,
		c.Database.DataDir,
		c.Export.OutputDir,
		c.Export.BatchSize,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		// Bare numbers are treated as milliseconds for *_MS keys and
		// as seconds otherwise; callers name their keys accordingly.
		if ms, err := strconv.Atoi(val); err == nil {
			if strings.HasSuffix(key, "_MS") {
				return time.Duration(ms) * time.Millisecond
			}
			return time.Duration(ms) * time.Second
		}
	}
	return defaultVal
}
