package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/practicebot/internal/bot"
	"github.com/example/practicebot/internal/config"
	"github.com/example/practicebot/internal/database"
	"github.com/example/practicebot/internal/excel"
	"github.com/example/practicebot/internal/logger"
	"github.com/example/practicebot/internal/notify"
	"github.com/example/practicebot/internal/practice"
	"github.com/example/practicebot/internal/scheduler"
	"github.com/example/practicebot/internal/spaced_repetition"
)

func main() {
	envFile := flag.String("env", ".env", "path to the env file")
	importPath := flag.String("import", "", "import spots from an .xlsx or .csv file and exit")
	sheet := flag.String("sheet", "Sheet1", "sheet to read when importing from Excel")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Connect(database.Options{Type: cfg.DBType, Path: cfg.DBPath, DatabaseURL: cfg.DatabaseURL})
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	spots := database.NewSpotRepository(db)
	pieces := database.NewPieceRepository(db)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *importPath != "" {
		ic := excel.DefaultImportConfig()
		ic.FilePath = *importPath
		ic.SheetName = *sheet
		res, err := excel.NewImporter(pieces, spots, log).Import(ctx, ic)
		if err != nil {
			log.Fatal("import failed", "file", *importPath, "error", err)
		}
		for _, e := range res.Errors {
			log.Warn("row skipped", "detail", e)
		}
		return
	}

	engine, err := spaced_repetition.NewScheduler(cfg.SchedulerConfig())
	if err != nil {
		log.Fatal("invalid scheduler settings", "error", err)
	}
	svc := practice.NewService(spots, pieces, engine, practice.SystemClock, log)

	summary, err := svc.Summary(ctx)
	if err != nil {
		log.Fatal("failed to read spots", "error", err)
	}
	log.Info("spots loaded", "total", summary.Total, "due", summary.Due, "overdue", summary.Overdue)

	if !cfg.RemindersEnabled() {
		log.Info("telegram not configured, nothing else to run")
		return
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal("failed to connect to telegram", "error", err)
	}
	notifier := notify.NewTelegram(api, cfg.TelegramChatID, log)
	reminders := scheduler.New(svc, notifier, log, scheduler.Options{
		Interval:   cfg.ReminderEvery,
		QuietStart: cfg.QuietStartHour,
		QuietEnd:   cfg.QuietEndHour,
		Location:   cfg.SchedulerConfig().Location,
	})
	if err := reminders.Start(); err != nil {
		log.Fatal("failed to start reminders", "error", err)
	}

	done := make(chan struct{})
	go func() {
		bot.New(api, svc, cfg.TelegramChatID, log).Run(ctx)
		close(done)
	}()

	log.Info("practicebot started, press Ctrl+C to stop")
	<-ctx.Done()

	log.Info("shutting down")
	stopped := make(chan struct{})
	go func() {
		reminders.Stop()
		close(stopped)
	}()
	timeout := time.After(5 * time.Second)
	for _, ch := range []chan struct{}{stopped, done} {
		select {
		case <-ch:
		case <-timeout:
			log.Warn("shutdown timed out")
			return
		}
	}
	log.Info("practicebot stopped")
}
