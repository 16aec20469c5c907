// Command export writes one user's data to stdout, either as a versioned JSON
// backup or as CSV.
//
//	export -user <uuid> [-format json|csv]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlawrence427/claritynest-backend/internal/config"
	"github.com/mlawrence427/claritynest-backend/internal/export"
	"github.com/mlawrence427/claritynest-backend/internal/ledger"
	"github.com/mlawrence427/claritynest-backend/internal/logger"
	"github.com/mlawrence427/claritynest-backend/internal/mood"
	"github.com/mlawrence427/claritynest-backend/internal/user"
)

func main() {
	userFlag := flag.String("user", "", "user UUID to export")
	format := flag.String("format", "json", "output format: json or csv")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", true)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		log.Fatal().Str("user", *userFlag).Msg("a valid -user UUID is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	ledgerStore := ledger.NewPGStore(pool)
	svc := export.NewService(
		ledger.NewService(ledgerStore),
		ledgerStore,
		mood.NewPGStore(pool),
		user.NewPGStore(pool),
	)

	switch *format {
	case "json":
		backup, err := svc.JSON(ctx, userID)
		if err != nil {
			log.Fatal().Err(err).Msg("build backup")
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(backup); err != nil {
			log.Fatal().Err(err).Msg("write backup")
		}
	case "csv":
		out, err := svc.CSV(ctx, userID, export.CSVOptions{})
		if err != nil {
			log.Fatal().Err(err).Msg("build csv")
		}
		fmt.Print(out)
	default:
		log.Fatal().Str("format", *format).Msg("unknown format")
	}
}
