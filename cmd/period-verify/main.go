package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/kpi_backend/appctx"
	"bitbucket.org/mmdatafocus/kpi_backend/config"
	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"bitbucket.org/mmdatafocus/kpi_backend/workflow"
	"github.com/shopspring/decimal"
)

// Recomputes monthly totals from daily_observations through the in-process
// aggregator and diffs them against the persisted period_summaries rows.
// Nonzero exit when any drift is found; run after a backfill or when dashboard
// numbers look suspicious.

func main() {
	chainID := flag.String("chain-id", "", "Chain to verify (required)")
	storeCode := flag.String("store-code", "", "Optional: verify only one store")
	year := flag.Int("year", 0, "Year to verify (required)")
	flag.Parse()

	if strings.TrimSpace(*chainID) == "" || *year <= 0 {
		fmt.Fprintln(os.Stderr, "usage: period-verify -chain-id <id> -year <yyyy> [-store-code <code>]")
		os.Exit(2)
	}

	ctx := context.Background()
	ctx = appctx.Set(ctx, appctx.ContextKeySkipChainScope, true)
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	obsQuery := db.WithContext(ctx).
		Where("chain_id = ? AND YEAR(observation_date) = ?", strings.TrimSpace(*chainID), *year)
	if strings.TrimSpace(*storeCode) != "" {
		obsQuery = obsQuery.Where("store_code = ?", strings.TrimSpace(*storeCode))
	}
	var observations []*models.DailyObservation
	if err := obsQuery.Find(&observations).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to load observations: %v\n", err)
		os.Exit(1)
	}

	sumQuery := db.WithContext(ctx).
		Where("chain_id = ? AND year = ?", strings.TrimSpace(*chainID), *year)
	if strings.TrimSpace(*storeCode) != "" {
		sumQuery = sumQuery.Where("store_code = ?", strings.TrimSpace(*storeCode))
	}
	var summaries []models.PeriodSummary
	if err := sumQuery.Find(&summaries).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to load period summaries: %v\n", err)
		os.Exit(1)
	}

	groupKey := func(o *models.DailyObservation) string {
		return o.StoreCode + "|" + o.Channel + "|" + o.Kpi
	}
	// No cutoff: summaries cover every stored day.
	grouped := workflow.AggregatePeriodsGrouped(observations, groupKey, workflow.MonthBucketer, workflow.AggregateOptions{})

	type monthly struct {
		budgetFull        decimal.Decimal
		budgetWithData    decimal.Decimal
		actual            decimal.Decimal
		priorYear         decimal.Decimal
		priorYearAdjusted decimal.Decimal
		hasData           bool
	}
	recomputed := make(map[string]monthly)
	for key, totals := range grouped {
		prevBudget, prevActual := decimal.Zero, decimal.Zero
		prevPrior, prevPriorAdj := decimal.Zero, decimal.Zero
		for _, t := range totals {
			// Accumulated values are running totals; per-month values come
			// back out as consecutive differences.
			recomputed[key+"|"+t.Bucket] = monthly{
				budgetFull:        t.BudgetFull,
				budgetWithData:    t.BudgetAccumulated.Sub(prevBudget),
				actual:            t.ActualAccumulated.Sub(prevActual),
				priorYear:         t.PriorYearAccumulated.Sub(prevPrior),
				priorYearAdjusted: t.PriorYearAdjustedAccumulated.Sub(prevPriorAdj),
				hasData:           t.HasData,
			}
			prevBudget = t.BudgetAccumulated
			prevActual = t.ActualAccumulated
			prevPrior = t.PriorYearAccumulated
			prevPriorAdj = t.PriorYearAdjustedAccumulated
		}
	}

	drift := 0
	seen := make(map[string]bool)
	for _, s := range summaries {
		key := fmt.Sprintf("%s|%s|%s|%d-%02d", s.StoreCode, s.Channel, s.Kpi, s.Year, s.Month)
		seen[key] = true
		m, ok := recomputed[key]
		if !ok {
			drift++
			fmt.Printf("STALE  %s: summary row has no matching observations\n", key)
			continue
		}
		mismatches := make([]string, 0, 6)
		check := func(name string, stored, computed decimal.Decimal) {
			if !stored.Equal(computed) {
				mismatches = append(mismatches, fmt.Sprintf("%s stored=%s computed=%s", name, stored, computed))
			}
		}
		check("budget_full", s.BudgetFull, m.budgetFull)
		check("budget_with_data", s.BudgetWithData, m.budgetWithData)
		check("actual", s.Actual, m.actual)
		check("prior_year", s.PriorYear, m.priorYear)
		check("prior_year_adjusted", s.PriorYearAdjusted, m.priorYearAdjusted)
		if s.HasData != m.hasData {
			mismatches = append(mismatches, fmt.Sprintf("has_data stored=%t computed=%t", s.HasData, m.hasData))
		}
		if len(mismatches) > 0 {
			drift++
			fmt.Printf("DRIFT  %s: %s\n", key, strings.Join(mismatches, "; "))
		}
	}
	for key := range recomputed {
		if !seen[key] {
			drift++
			fmt.Printf("MISSING %s: observations exist but summary row does not\n", key)
		}
	}

	if drift > 0 {
		fmt.Printf("%d mismatching month rows (checked %d summaries, %d recomputed)\n", drift, len(summaries), len(recomputed))
		os.Exit(1)
	}
	fmt.Printf("OK: %d summary rows match recomputed totals\n", len(summaries))
}
