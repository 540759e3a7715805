package main

import (
	"context"
	"fmt"
	"time"

	"eventix-gateway/internal/config"
	"eventix-gateway/internal/database"
	"eventix-gateway/internal/logger"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	dsn := flag.String("dsn", cfg.Database.DSN, "SQLite DSN of the checkout journal")
	reset := flag.Bool("reset", false, "drop the checkouts table before migrating")
	pruneAfter := flag.Duration("prune-older-than", 0, "delete paid and cancelled checkouts not updated for this long (0 keeps everything)")
	quiet := flag.BoolP("quiet", "q", false, "only log warnings and errors")
	flag.Parse()

	log := logger.NewLogger(cfg.LogDir)
	defer log.Close()
	if *quiet {
		log.SetLevel(logger.WARN)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(ctx, *dsn, log)
	if err != nil {
		log.Fatal("MIGRATE", fmt.Sprintf("Failed to open journal: %v", err))
	}
	defer db.Close()

	if *reset {
		if err := database.Reset(ctx, db, log); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
	}
	if err := database.Migrate(ctx, db, log); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	if *pruneAfter > 0 {
		if _, err := database.Prune(ctx, db, time.Now().Add(-*pruneAfter), log); err != nil {
			log.Fatal("MIGRATE", err.Error())
		}
	}

	log.Info("MIGRATE", "Checkout journal is up to date")
}
