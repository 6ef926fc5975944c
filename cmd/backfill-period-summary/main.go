package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/appctx"
	"bitbucket.org/mmdatafocus/kpi_backend/config"
	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"bitbucket.org/mmdatafocus/kpi_backend/utils"
	"github.com/schollz/progressbar/v3"
	"gorm.io/gorm"
)

// Rebuilds period_summaries from daily_observations. Safe to re-run: rows are
// upserted per (chain, store, channel, kpi, year, month) and stale rows inside
// the window are deleted afterwards.

func main() {
	chainID := flag.String("chain-id", "", "Optional: backfill only one chain. If empty, backfills every chain present in daily_observations.")
	storeCode := flag.String("store-code", "", "Optional: backfill only one store.")
	from := flag.String("from", "", "Optional: start date (YYYY-MM-DD). Defaults to Jan 1 of last year.")
	to := flag.String("to", "", "Optional: end date (YYYY-MM-DD). Defaults to today.")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	// Ensure schema is up-to-date (creates period_summaries if missing).
	models.MigrateTable()

	ctx = context.WithValue(ctx, utils.ContextKeyUserName, "BackfillPeriodSummary")
	ctx = appctx.Set(ctx, appctx.ContextKeySkipChainScope, true)

	start := strings.TrimSpace(*from)
	if start == "" {
		start = time.Date(time.Now().Year()-1, time.January, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	}
	end := strings.TrimSpace(*to)
	if end == "" {
		end = time.Now().UTC().Format("2006-01-02")
	}
	if _, err := utils.ParseDateString(start); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from %q: %v\n", start, err)
		os.Exit(1)
	}
	if _, err := utils.ParseDateString(end); err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to %q: %v\n", end, err)
		os.Exit(1)
	}

	type chainStore struct {
		ChainId   string
		StoreCode string
	}
	var targets []chainStore
	targetQuery := db.WithContext(ctx).Model(&models.DailyObservation{}).
		Distinct("chain_id", "store_code")
	if strings.TrimSpace(*chainID) != "" {
		targetQuery = targetQuery.Where("chain_id = ?", strings.TrimSpace(*chainID))
	}
	if strings.TrimSpace(*storeCode) != "" {
		targetQuery = targetQuery.Where("store_code = ?", strings.TrimSpace(*storeCode))
	}
	if err := targetQuery.Order("chain_id, store_code").Find(&targets).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list chain/store pairs: %v\n", err)
		os.Exit(1)
	}
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "no observations found to backfill")
		return
	}

	fmt.Printf("Backfilling period_summaries for %d chain/store pairs from=%s to=%s\n", len(targets), start, end)
	bar := progressbar.Default(int64(len(targets)), "backfill")

	failed := 0
	for _, t := range targets {
		if err := backfillStore(ctx, db, t.ChainId, t.StoreCode, start, end); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "\nchain %s store %s backfill failed: %v\n", t.ChainId, t.StoreCode, err)
		}
		_ = bar.Add(1)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d chain/store pairs failed\n", failed, len(targets))
		os.Exit(1)
	}
	fmt.Println("Done.")
}

func backfillStore(ctx context.Context, db *gorm.DB, chainId, storeCode, start, end string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Upsert monthly sums. budget_with_data / prior-year sums only count
		// days whose actual is positive, matching the query-time aggregation.
		if err := tx.Exec(`
			INSERT INTO period_summaries (chain_id, store_code, channel, kpi, year, month,
				budget_full, budget_with_data, actual, prior_year, prior_year_adjusted, has_data,
				created_at, updated_at)
			SELECT
				o.chain_id,
				o.store_code,
				o.channel,
				o.kpi,
				YEAR(o.observation_date),
				MONTH(o.observation_date),
				COALESCE(SUM(o.budget_amount), 0),
				COALESCE(SUM(CASE WHEN o.actual_amount > 0 THEN o.budget_amount ELSE 0 END), 0),
				COALESCE(SUM(o.actual_amount), 0),
				COALESCE(SUM(CASE WHEN o.actual_amount > 0 THEN o.prior_year_amount ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN o.actual_amount > 0 THEN o.prior_year_adjusted_amount ELSE 0 END), 0),
				MAX(o.actual_amount > 0),
				NOW(),
				NOW()
			FROM daily_observations o
			WHERE
				o.chain_id = ?
				AND o.store_code = ?
				AND o.observation_date BETWEEN ? AND ?
			GROUP BY
				o.chain_id, o.store_code, o.channel, o.kpi,
				YEAR(o.observation_date), MONTH(o.observation_date)
			ON DUPLICATE KEY UPDATE
				budget_full = VALUES(budget_full),
				budget_with_data = VALUES(budget_with_data),
				actual = VALUES(actual),
				prior_year = VALUES(prior_year),
				prior_year_adjusted = VALUES(prior_year_adjusted),
				has_data = VALUES(has_data),
				updated_at = NOW()
		`, chainId, storeCode, start, end).Error; err != nil {
			return err
		}

		// Delete stale rows: months inside the window with no remaining
		// observations for that channel/kpi.
		return tx.Exec(`
			DELETE ps
			FROM period_summaries ps
			LEFT JOIN (
				SELECT
					o.chain_id,
					o.store_code,
					o.channel,
					o.kpi,
					YEAR(o.observation_date) AS yr,
					MONTH(o.observation_date) AS mo
				FROM daily_observations o
				WHERE
					o.chain_id = ?
					AND o.store_code = ?
					AND o.observation_date BETWEEN ? AND ?
				GROUP BY
					o.chain_id, o.store_code, o.channel, o.kpi,
					YEAR(o.observation_date), MONTH(o.observation_date)
			) agg
				ON agg.chain_id = ps.chain_id
				AND agg.store_code = ps.store_code
				AND agg.channel = ps.channel
				AND agg.kpi = ps.kpi
				AND agg.yr = ps.year
				AND agg.mo = ps.month
			WHERE
				ps.chain_id = ?
				AND ps.store_code = ?
				AND STR_TO_DATE(CONCAT(ps.year, '-', ps.month, '-01'), '%Y-%m-%d') BETWEEN ? AND LAST_DAY(?)
				AND agg.yr IS NULL
		`, chainId, storeCode, start, end, chainId, storeCode, start, end).Error
	})
}
