package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BTreeMap/LifeRank/internal/api"
	"github.com/BTreeMap/LifeRank/internal/auth"
	"github.com/BTreeMap/LifeRank/internal/genai"
	"github.com/BTreeMap/LifeRank/internal/store"
	"github.com/BTreeMap/LifeRank/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for LifeRank state data
	DefaultStateDir = "/var/lib/liferank"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "liferank.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Build module options
	storeOpts := buildStoreOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	authOpts := buildAuthOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping LifeRank with configured modules")
	slog.Debug("Module options counts", "store", len(storeOpts), "genai", len(genaiOpts), "auth", len(authOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	if err := api.Run(storeOpts, genaiOpts, authOpts, apiOpts); err != nil {
		slog.Error("LifeRank failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("LifeRank exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	StateDir      string
	OpenAIKey     string
	APIAddr       string
	JWTSecret     string
	KnowledgeFile string
	HistoryLimit  string
}

// Flags holds command line flag values
type Flags struct {
	stateDir      *string
	dbDSN         *string
	openaiKey     *string
	apiAddr       *string
	jwtSecret     *string
	knowledgeFile *string
	historyLimit  *string
}

// initializeLogger sets up structured logging. LIFERANK_DEBUG=false drops the
// level to info.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LIFERANK_DEBUG", true) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("LIFERANK_STATE_DIR"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		APIAddr:       os.Getenv("API_ADDR"),
		JWTSecret:     os.Getenv("LIFERANK_JWT_SECRET"),
		KnowledgeFile: os.Getenv("LIFERANK_KNOWLEDGE_FILE"),
		HistoryLimit:  os.Getenv("LIFERANK_HISTORY_LIMIT"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No LIFERANK_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("LIFERANK_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"LIFERANK_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"LIFERANK_JWT_SECRET_SET", config.JWTSecret != "",
		"LIFERANK_KNOWLEDGE_FILE", config.KnowledgeFile,
		"LIFERANK_HISTORY_LIMIT", config.HistoryLimit)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for LifeRank data (overrides $LIFERANK_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN for the application store (overrides $DATABASE_URL)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		jwtSecret:     flag.String("jwt-secret", config.JWTSecret, "JWT signing secret (overrides $LIFERANK_JWT_SECRET)"),
		knowledgeFile: flag.String("knowledge-file", config.KnowledgeFile, "coaching knowledge document path (overrides $LIFERANK_KNOWLEDGE_FILE)"),
		historyLimit:  flag.String("history-limit", config.HistoryLimit, "chat history loaded per coach request, 0 for unlimited (overrides $LIFERANK_HISTORY_LIMIT)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"jwtSecretSet", *flags.jwtSecret != "",
		"knowledgeFile", *flags.knowledgeFile,
		"historyLimit", *flags.historyLimit)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	// Ensure state directory exists if we're using a file-based DSN
	if store.DetectDSNType(*flags.dbDSN) == store.DSNTypeSQLite {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
		slog.Debug("State directory created successfully", "state_dir", stateDir)
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		// Check if it's a PostgreSQL DSN using the shared detection function
		if store.DetectDSNType(*flags.dbDSN) == store.DSNTypePostgres {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			// Assume SQLite for file paths
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildAuthOptions constructs auth service configuration options
func buildAuthOptions(flags Flags) []auth.Option {
	var authOpts []auth.Option
	if *flags.jwtSecret != "" {
		authOpts = append(authOpts, auth.WithSecret(*flags.jwtSecret))
	}
	return authOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.stateDir != "" {
		apiOpts = append(apiOpts, api.WithStateDir(*flags.stateDir))
	}
	if *flags.knowledgeFile != "" {
		apiOpts = append(apiOpts, api.WithKnowledgeFile(*flags.knowledgeFile))
	}
	if *flags.historyLimit != "" {
		limit, err := strconv.Atoi(*flags.historyLimit)
		if err != nil || limit < 0 {
			slog.Warn("Invalid history limit, ignoring", "value", *flags.historyLimit)
		} else if limit > 0 {
			apiOpts = append(apiOpts, api.WithHistoryLimit(limit))
		}
	}
	return apiOpts
}
