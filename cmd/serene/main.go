package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/InnerCurrent/serene/internal/gate"
	"github.com/InnerCurrent/serene/internal/genai"
	"github.com/InnerCurrent/serene/internal/lockfile"
	"github.com/InnerCurrent/serene/internal/models"
	"github.com/InnerCurrent/serene/internal/notify"
	"github.com/InnerCurrent/serene/internal/recommend"
	"github.com/InnerCurrent/serene/internal/scheduler"
	"github.com/InnerCurrent/serene/internal/sensing"
	"github.com/InnerCurrent/serene/internal/session"
	"github.com/InnerCurrent/serene/internal/store"
	"github.com/InnerCurrent/serene/internal/timer"
	"github.com/InnerCurrent/serene/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for Serene state data
	DefaultStateDir = "/var/lib/serene"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "serene.db"
)

// Config holds environment configuration
type Config struct {
	DbDriver    string
	DatabaseURL string
	StateDir    string
	PremiumCode string
	OpenAIKey   string
	NotifySMS   bool
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDriver    *string
	dbDSN       *string
	premiumCode *string
	notifySMS   *bool
	debug       *bool
	once        *bool
}

func main() {
	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)
	initializeLogger(*flags.debug)

	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to lock state directory", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	catalog, err := recommend.LoadCatalog()
	if err != nil {
		slog.Error("Failed to load meditation catalog", "error", err)
		os.Exit(1)
	}

	notifier := buildNotifier(*flags.notifySMS)
	phraser := buildPhraser(config)

	tmr := timer.NewSimpleTimer()
	defer tmr.Stop()

	g := gate.NewGate(st, gate.WithTimer(tmr))
	orch := session.New(session.Deps{
		Face:     sensing.NewFaceAdapter(sensing.NewSimCamera()),
		Voice:    sensing.NewVoiceAdapter(sensing.NewSimMicrophone()),
		Wearable: sensing.NewWearableAdapter(sensing.NewSimWearable()),
		Gate:     g,
		Catalog:  catalog,
		Store:    st,
		Notifier: notifier,
		Player:   session.NewTimedPlayer(tmr),
		Phraser:  phraser,
	}, session.WithPremiumCode(*flags.premiumCode))

	slog.Info("Serene adaptive session engine starting",
		"state_dir", *flags.stateDir, "db_driver", *flags.dbDriver,
		"free_session_available", g.AvailableToday())

	if *flags.once {
		runOnce(orch)
		return
	}
	runDaemon(orch, g, notifier)
}

// initializeLogger configures the structured logger.
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadEnvironmentConfig loads .env (if present) and reads environment settings.
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}
	return Config{
		DbDriver:    util.GetenvDefault("SERENE_DB_DRIVER", "sqlite3"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    util.GetenvDefault("SERENE_STATE_DIR", DefaultStateDir),
		PremiumCode: util.GetenvDefault("SERENE_PREMIUM_CODE", session.DefaultPremiumCode),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		NotifySMS:   util.ParseBoolEnv("SERENE_NOTIFY_SMS", false),
		Debug:       util.ParseBoolEnv("SERENE_DEBUG", false),
	}
}

// parseCommandLineFlags layers command line flags over environment defaults.
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "directory for Serene state data"),
		dbDriver:    flag.String("db-driver", config.DbDriver, "database driver (sqlite3 or postgres)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN (file path for sqlite3, URL for postgres)"),
		premiumCode: flag.String("premium-code", config.PremiumCode, "premium access code"),
		notifySMS:   flag.Bool("notify-sms", config.NotifySMS, "send user notices via Twilio SMS"),
		debug:       flag.Bool("debug", config.Debug, "enable debug logging"),
		once:        flag.Bool("once", false, "run one analysis pass and exit"),
	}
	flag.Parse()
	return flags
}

// buildStore opens the configured persistence backend.
func buildStore(flags Flags) (store.Store, error) {
	switch *flags.dbDriver {
	case "postgres":
		return store.NewPostgresStore(store.WithPostgresDSN(*flags.dbDSN))
	default:
		dsn := *flags.dbDSN
		if dsn == "" {
			dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		return store.NewSQLiteStore(store.WithDSN(dsn))
	}
}

// buildNotifier assembles the notification fan-out: the log sink always, the
// Twilio SMS sink when enabled and configured.
func buildNotifier(sms bool) notify.Notifier {
	sinks := []notify.Notifier{notify.NewLogNotifier()}
	if sms {
		tw, err := notify.NewTwilioNotifier()
		if err != nil {
			slog.Warn("Twilio SMS notifier unavailable", "error", err)
		} else {
			sinks = append(sinks, tw)
		}
	}
	return notify.NewMulti(sinks...)
}

// buildPhraser creates the optional GenAI insight phraser.
func buildPhraser(config Config) session.Phraser {
	if config.OpenAIKey == "" {
		slog.Debug("GenAI insight phrasing disabled: no API key")
		return nil
	}
	client, err := genai.NewClient(genai.WithAPIKey(config.OpenAIKey))
	if err != nil {
		slog.Warn("GenAI insight phrasing unavailable", "error", err)
		return nil
	}
	return client
}

// runOnce performs a single analysis and recommendation pass.
func runOnce(orch *session.Orchestrator) {
	ctx := context.Background()
	orch.StartAnalysis(ctx)
	// Give the simulated providers time to produce a reading.
	time.Sleep(3 * sensing.DefaultCadence)
	logSnapshot(ctx, orch)
	orch.StopAnalysis(ctx)
}

// runDaemon runs analysis until interrupted, logging the fused state
// periodically and announcing the daily free-session reset at midnight.
func runDaemon(orch *session.Orchestrator, g *gate.Gate, notifier notify.Notifier) {
	ctx := context.Background()

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddDailyMidnightJob(func() {
		if g.AvailableToday() {
			notifier.Notify(ctx, models.Notification{
				Title:       "Free Session Available",
				Description: "Your daily free meditation session is ready.",
				Severity:    models.SeverityInfo,
			})
		}
	}); err != nil {
		slog.Error("Failed to schedule daily reset notice", "error", err)
	}

	orch.StartAnalysis(ctx)
	defer orch.StopAnalysis(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			logSnapshot(ctx, orch)
		case s := <-sig:
			slog.Info("Shutting down", "signal", s)
			return
		}
	}
}

// logSnapshot reports the current fused state, score, and recommendation.
func logSnapshot(ctx context.Context, orch *session.Orchestrator) {
	fused := orch.Fused()
	env := orch.Environment()
	slog.Info("Adaptation snapshot",
		"score", orch.Score(),
		"active_modalities", fused.ActiveCount(),
		"emotion", fused.Face.Emotion,
		"tone", fused.Voice.Tone,
		"heart_rate", fused.Wearable.HeartRate,
		"sound", env.Sound, "temperature", env.Temperature, "brightness", env.Brightness)
	if script, ok := orch.Recommendation(); ok {
		slog.Info("Recommended session", "script", script.ID, "title", script.Title, "energy_type", script.Energy)
	} else {
		slog.Warn("No recommendation available for the current state")
	}
	for _, insight := range orch.Insights(ctx) {
		slog.Info("Insight", "text", insight)
	}
}
