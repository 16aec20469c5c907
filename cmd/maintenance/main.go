// Command maintenance runs the periodic jobs: downgrade users whose premium
// period has lapsed, roll lapsed budget windows forward, and resync budget
// spend totals from the ledger. Intended to run from cron.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mlawrence427/claritynest-backend/internal/budget"
	"github.com/mlawrence427/claritynest-backend/internal/config"
	"github.com/mlawrence427/claritynest-backend/internal/ledger"
	"github.com/mlawrence427/claritynest-backend/internal/logger"
	"github.com/mlawrence427/claritynest-backend/internal/subscription"
	"github.com/mlawrence427/claritynest-backend/internal/user"
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

	subs := subscription.NewService(user.NewPGStore(pool), log)
	budgets := budget.NewService(budget.NewPGStore(pool), ledger.NewService(ledger.NewPGStore(pool)))

	expired := sweepPremium(ctx, pool, subs, log)
	rolled, resynced := sweepBudgets(ctx, pool, budgets, log)

	log.Info().Int("premium_expired", expired).Int("budgets_rolled", rolled).
		Int("budgets_resynced", resynced).Msg("maintenance finished")
}

func sweepPremium(ctx context.Context, pool *pgxpool.Pool, subs *subscription.Service, log zerolog.Logger) int {
	ids, err := collectIDs(ctx, pool,
		`SELECT id FROM users WHERE is_premium AND premium_expires_at < NOW()`)
	if err != nil {
		log.Fatal().Err(err).Msg("list lapsed premium users")
	}

	var expired int
	for _, id := range ids {
		downgraded, err := subs.ExpirePremium(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("user_id", id.String()).Msg("expire premium failed")
			continue
		}
		if downgraded {
			expired++
		}
	}
	return expired
}

func sweepBudgets(ctx context.Context, pool *pgxpool.Pool, budgets *budget.Service, log zerolog.Logger) (rolled, resynced int) {
	ids, err := collectIDs(ctx, pool, `SELECT DISTINCT user_id FROM budgets`)
	if err != nil {
		log.Fatal().Err(err).Msg("list budget owners")
	}

	for _, id := range ids {
		moved, err := budgets.Rollover(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("user_id", id.String()).Msg("budget rollover failed")
			continue
		}
		rolled += len(moved)

		synced, err := budgets.RecalculateFromTransactions(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("user_id", id.String()).Msg("budget resync failed")
			continue
		}
		resynced += len(synced)
	}
	return rolled, resynced
}

func collectIDs(ctx context.Context, pool *pgxpool.Pool, query string) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
