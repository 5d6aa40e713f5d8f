package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/sennacar/sennacar/internal/api"
	"github.com/sennacar/sennacar/internal/auth"
	"github.com/sennacar/sennacar/internal/calendar"
	"github.com/sennacar/sennacar/internal/chatbot"
	"github.com/sennacar/sennacar/internal/intent"
	"github.com/sennacar/sennacar/internal/notify"
	"github.com/sennacar/sennacar/internal/reminder"
	"github.com/sennacar/sennacar/internal/store"
	"github.com/sennacar/sennacar/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for sennacar state data
	DefaultStateDir = "/var/lib/sennacar"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "sennacar.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	authSvc, err := auth.NewService(auth.WithSecret(*flags.jwtSecret))
	if err != nil {
		slog.Error("Failed to create auth service", "error", err)
		os.Exit(1)
	}

	engineOpts := []chatbot.Option{chatbot.WithStore(st)}
	engineOpts = append(engineOpts, buildClassifierOptions(flags)...)
	engineOpts = append(engineOpts, buildCalendarOptions(flags)...)

	notifier := buildNotifier()
	if notifier != nil {
		engineOpts = append(engineOpts, chatbot.WithNotifier(notifier))
	}

	engine, err := chatbot.NewEngine(engineOpts...)
	if err != nil {
		slog.Error("Failed to create chatbot engine", "error", err)
		os.Exit(1)
	}

	if notifier != nil {
		reminderOpts := []reminder.Option{reminder.WithStore(st), reminder.WithNotifier(notifier)}
		if *flags.reminderCron != "" {
			reminderOpts = append(reminderOpts, reminder.WithCronSpec(*flags.reminderCron))
		}
		reminders, err := reminder.NewService(reminderOpts...)
		if err != nil {
			slog.Error("Failed to create reminder service", "error", err)
			os.Exit(1)
		}
		if err := reminders.Start(); err != nil {
			slog.Error("Failed to start reminder service", "error", err)
			os.Exit(1)
		}
		defer reminders.Stop()
	} else {
		slog.Info("Twilio not configured, reminders and confirmations disabled")
	}

	apiOpts := []api.Option{api.WithStore(st), api.WithEngine(engine), api.WithAuth(authSvc)}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server, err := api.NewServer(apiOpts...)
	if err != nil {
		slog.Error("Failed to create API server", "error", err)
		os.Exit(1)
	}

	slog.Info("Bootstrapping sennacar backend")
	if err := server.Run(); err != nil {
		slog.Error("sennacar failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("sennacar exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL    string `envconfig:"DATABASE_URL"`
	StateDir       string `envconfig:"SENNACAR_STATE_DIR"`
	JWTSecret      string `envconfig:"JWT_SECRET"`
	OpenAIKey      string `envconfig:"OPENAI_API_KEY"`
	APIAddr        string `envconfig:"API_ADDR"`
	ReminderCron   string `envconfig:"REMINDER_SCHEDULE"`
	GoogleCreds    string `envconfig:"GOOGLE_CREDENTIALS_FILE"`
	GoogleToken    string `envconfig:"GOOGLE_TOKEN_FILE"`
	GoogleCalendar string `envconfig:"GOOGLE_CALENDAR_ID"`
}

// Flags holds command line flag values
type Flags struct {
	stateDir       *string
	dbDSN          *string
	jwtSecret      *string
	openaiKey      *string
	apiAddr        *string
	reminderCron   *string
	googleCreds    *string
	googleToken    *string
	googleCalendar *string
}

// initializeLogger sets up structured logging. SENNACAR_DEBUG=true
// lowers the level to debug.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("SENNACAR_DEBUG", false) {
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

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		slog.Warn("failed to process environment config", "error", err)
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No SENNACAR_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"SENNACAR_STATE_DIR", config.StateDir,
		"JWT_SECRET_SET", config.JWTSecret != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"REMINDER_SCHEDULE", config.ReminderCron,
		"GOOGLE_CREDENTIALS_FILE_SET", config.GoogleCreds != "",
		"GOOGLE_TOKEN_FILE_SET", config.GoogleToken != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for sennacar data (overrides $SENNACAR_STATE_DIR)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseURL, "database DSN, PostgreSQL URL or SQLite path (overrides $DATABASE_URL)"),
		jwtSecret:      flag.String("jwt-secret", config.JWTSecret, "JWT signing secret (overrides $JWT_SECRET)"),
		openaiKey:      flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for intent classification (overrides $OPENAI_API_KEY)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		reminderCron:   flag.String("reminder-cron", config.ReminderCron, "cron schedule for appointment reminders (overrides $REMINDER_SCHEDULE)"),
		googleCreds:    flag.String("google-credentials", config.GoogleCreds, "Google OAuth credentials file (overrides $GOOGLE_CREDENTIALS_FILE)"),
		googleToken:    flag.String("google-token", config.GoogleToken, "Google OAuth token file (overrides $GOOGLE_TOKEN_FILE)"),
		googleCalendar: flag.String("google-calendar", config.GoogleCalendar, "Google Calendar id (overrides $GOOGLE_CALENDAR_ID)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"jwtSecret_set", *flags.jwtSecret != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"reminderCron", *flags.reminderCron)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "host=") {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	return nil
}

// openStore selects the storage backend from the DSN.
func openStore(flags Flags) (store.Store, error) {
	if *flags.dbDSN == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithSQLiteDSN(*flags.dbDSN))
}

// buildClassifierOptions wires the OpenAI classifier when a key is
// configured; the engine falls back to keyword matching otherwise.
func buildClassifierOptions(flags Flags) []chatbot.Option {
	if *flags.openaiKey == "" {
		slog.Debug("No OpenAI API key, using keyword intent classifier")
		return nil
	}
	keywords, err := intent.NewKeywordClassifier()
	if err != nil {
		slog.Error("Failed to load intent catalog", "error", err)
		return nil
	}
	classifier, err := intent.NewOpenAIClassifier(keywords, intent.WithAPIKey(*flags.openaiKey))
	if err != nil {
		slog.Error("Failed to create OpenAI classifier, falling back to keywords", "error", err)
		return nil
	}
	return []chatbot.Option{chatbot.WithClassifier(classifier)}
}

// buildCalendarOptions wires Google Calendar sync when credentials are
// configured.
func buildCalendarOptions(flags Flags) []chatbot.Option {
	if *flags.googleCreds == "" || *flags.googleToken == "" {
		slog.Debug("Google Calendar not configured, calendar sync disabled")
		return nil
	}
	var calOpts []calendar.Option
	calOpts = append(calOpts, calendar.WithCredentialsFile(*flags.googleCreds), calendar.WithTokenFile(*flags.googleToken))
	if *flags.googleCalendar != "" {
		calOpts = append(calOpts, calendar.WithCalendarID(*flags.googleCalendar))
	}
	client, err := calendar.NewGoogleClient(context.Background(), calOpts...)
	if err != nil {
		slog.Error("Failed to create Google Calendar client, calendar sync disabled", "error", err)
		return nil
	}
	return []chatbot.Option{chatbot.WithEventCreator(client)}
}

// buildNotifier creates the Twilio WhatsApp client from environment
// variables, or nil when Twilio is not configured.
func buildNotifier() notify.Notifier {
	if os.Getenv("TWILIO_ACCOUNT_SID") == "" {
		return nil
	}
	client, err := notify.NewClient()
	if err != nil {
		slog.Error("Failed to create Twilio client, notifications disabled", "error", err)
		return nil
	}
	return client
}
