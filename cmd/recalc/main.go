// Command recalc reconciles every account: each stored balance is overwritten
// with the full sum of the account's transactions. Safe to run at any time.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlawrence427/claritynest-backend/internal/config"
	"github.com/mlawrence427/claritynest-backend/internal/ledger"
	"github.com/mlawrence427/claritynest-backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", true)
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	svc := ledger.NewService(ledger.NewPGStore(pool))

	rows, err := pool.Query(ctx, `SELECT id, user_id FROM accounts ORDER BY created_at ASC`)
	if err != nil {
		log.Fatal().Err(err).Msg("list accounts")
	}
	defer rows.Close()

	type target struct{ accountID, userID uuid.UUID }
	var targets []target
	for rows.Next() {
		var tg target
		if err := rows.Scan(&tg.accountID, &tg.userID); err != nil {
			log.Fatal().Err(err).Msg("scan account")
		}
		targets = append(targets, tg)
	}
	if err := rows.Err(); err != nil {
		log.Fatal().Err(err).Msg("list accounts")
	}

	var failed int
	for _, tg := range targets {
		balance, err := svc.RecalculateBalance(ctx, tg.userID, tg.accountID)
		if err != nil {
			failed++
			log.Error().Err(err).Str("account_id", tg.accountID.String()).Msg("recalculate failed")
			continue
		}
		log.Debug().Str("account_id", tg.accountID.String()).Str("balance", balance.String()).Msg("reconciled")
	}

	log.Info().Int("accounts", len(targets)).Int("failed", failed).Msg("reconciliation finished")
	if failed > 0 {
		log.Fatal().Msg("some accounts failed to reconcile")
	}
}
