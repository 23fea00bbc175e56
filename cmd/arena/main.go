package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/arenakit/arena/internal/config"
	"github.com/arenakit/arena/internal/data"
	"github.com/arenakit/arena/internal/persist"
	"github.com/arenakit/arena/internal/scripting"
	"github.com/arenakit/arena/internal/session"
	"github.com/arenakit/arena/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              arena  v0.1.0                \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      pooled objects · wave sandbox        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ──────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/arena.toml"
	if p := os.Getenv("ARENA_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Optional ledger database
	var ledger system.LedgerWriter
	if cfg.Database.DSN != "" {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		ledger = persist.NewLedgerRepo(db)
		fmt.Println()
	}

	// 4. Data tables
	printSection("data")
	lootTables, err := data.LoadLootTables(cfg.Loot.Tables)
	if err != nil {
		return fmt.Errorf("load loot tables: %w", err)
	}
	printStat("loot tables", lootTables.Count())

	waveTable, err := data.LoadWaveTable(cfg.Waves.Path)
	if err != nil {
		return fmt.Errorf("load waves: %w", err)
	}
	printStat("enemy kinds", len(waveTable.Kinds()))
	printStat("waves", waveTable.Count())

	// 5. Lua
	engine, err := scripting.NewEngine(cfg.Scripts.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	printOK("Lua scripts loaded")
	fmt.Println()

	// 6. Build the world
	printSection("pools")
	s, err := session.New(session.Options{
		Config:  cfg,
		Loot:    lootTables,
		Waves:   waveTable,
		Scripts: engine,
		Ledger:  ledger,
	}, log)
	if err != nil {
		return fmt.Errorf("session: %w", err)
	}
	defer s.Close()
	for _, name := range s.PoolNames() {
		printStat(name, s.Pool(name).Size())
	}
	fmt.Println()

	bot := newBot(s, log)
	s.Waves.Start()

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.World.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("game loop running (tick: %s)", cfg.World.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			bot.act()
			s.Tick(cfg.World.TickRate)
			probeContacts(s)
			if bot.finished() {
				bot.report()
				return flushLedger(s, log, cfg.Server.StartTime)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			bot.report()
			return flushLedger(s, log, cfg.Server.StartTime)
		}
	}
}

// flushLedger writes whatever the ledger still buffers before exit.
func flushLedger(s *session.Session, log *zap.Logger, startedAt int64) error {
	if err := s.Ledger.Flush(context.Background()); err != nil {
		return fmt.Errorf("final ledger flush: %w", err)
	}
	log.Info("arena stopped",
		zap.Duration("uptime", time.Since(time.Unix(startedAt, 0)).Round(time.Second)),
		zap.Int("ledger_buffered", s.Ledger.Buffered()),
		zap.Int("ledger_dropped", s.Ledger.Dropped()),
	)
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
