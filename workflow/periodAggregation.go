package workflow

import (
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"bitbucket.org/mmdatafocus/kpi_backend/utils"
	"github.com/shopspring/decimal"
)

// Bucketer maps an observation date to its reporting bucket key.
type Bucketer func(time.Time) string

// MonthBucketer buckets observations by calendar month ("2025-05").
func MonthBucketer(t time.Time) string {
	return t.Format("2006-01")
}

// YearBucketer buckets observations by calendar year.
func YearBucketer(t time.Time) string {
	return t.Format("2006")
}

// AggregateOptions carries the caller-selected knobs shared by every grouping
// granularity.
type AggregateOptions struct {
	// Cutoff limits actual/DaysWithData sums to days on/before this date
	// (date-only comparison). Nil means no cutoff.
	Cutoff *time.Time
	// Mode picks the prior-year base for the vs-prior-year ratio.
	Mode models.YearComparisonMode
}

var oneHundred = decimal.NewFromInt(100)

// AggregatePeriods rolls daily observations into per-bucket totals with
// cross-bucket running accumulators, in chronological bucket order.
//
// BudgetFull always covers every row of the bucket: budgets are known in
// advance, so the full-period target must include future days. Everything
// accumulated is restricted to days with data, which keeps the attainment
// ratio like-for-like while a period is only partially elapsed.
func AggregatePeriods(observations []*models.DailyObservation, bucketer Bucketer, opts AggregateOptions) []*models.PeriodTotal {
	mode := opts.Mode
	if !mode.Valid() {
		mode = models.YearComparisonPriorAdjusted
	}

	var cutoff *time.Time
	if opts.Cutoff != nil {
		c := utils.DateOnly(*opts.Cutoff)
		cutoff = &c
	}

	type bucketSums struct {
		start             time.Time
		budgetFull        decimal.Decimal
		budgetWithData    decimal.Decimal
		actual            decimal.Decimal
		priorYear         decimal.Decimal
		priorYearAdjusted decimal.Decimal
		hasData           bool
	}

	buckets := make(map[string]*bucketSums)
	for _, obs := range observations {
		key := bucketer(obs.ObservationDate)
		b := buckets[key]
		if b == nil {
			b = &bucketSums{start: utils.DateOnly(obs.ObservationDate)}
			buckets[key] = b
		}
		day := utils.DateOnly(obs.ObservationDate)
		if day.Before(b.start) {
			b.start = day
		}

		b.budgetFull = b.budgetFull.Add(obs.BudgetAmount)

		if cutoff != nil && day.After(*cutoff) {
			continue
		}
		b.actual = b.actual.Add(obs.ActualAmount)
		b.budgetWithData = b.budgetWithData.Add(obs.BudgetDaysWithDataAmount)
		b.priorYear = b.priorYear.Add(obs.PriorYearDaysWithDataAmount)
		b.priorYearAdjusted = b.priorYearAdjusted.Add(obs.PriorYearAdjustedDaysWithDataAmount)
		if obs.HasReportedActual() {
			b.hasData = true
		}
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		bi, bj := buckets[keys[i]], buckets[keys[j]]
		if bi.start.Equal(bj.start) {
			return keys[i] < keys[j]
		}
		return bi.start.Before(bj.start)
	})

	// Left-fold over chronologically sorted buckets; the accumulators are a
	// running total across the whole series, never reset per bucket.
	accBudget := decimal.Zero
	accActual := decimal.Zero
	accPriorYear := decimal.Zero
	accPriorYearAdjusted := decimal.Zero

	totals := make([]*models.PeriodTotal, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]

		accBudget = accBudget.Add(b.budgetWithData)
		accActual = accActual.Add(b.actual)
		accPriorYear = accPriorYear.Add(b.priorYear)
		accPriorYearAdjusted = accPriorYearAdjusted.Add(b.priorYearAdjusted)

		priorBase := accPriorYear
		if mode == models.YearComparisonPriorAdjusted {
			priorBase = accPriorYearAdjusted
		}

		totals = append(totals, &models.PeriodTotal{
			Bucket:                       key,
			BucketStart:                  b.start,
			BudgetFull:                   b.budgetFull,
			BudgetAccumulated:            accBudget,
			ActualAccumulated:            accActual,
			PriorYearAccumulated:         accPriorYear,
			PriorYearAdjustedAccumulated: accPriorYearAdjusted,
			AttainmentPct:                ratioPct(accActual, accBudget),
			AttainmentVsPriorYearPct:     ratioPct(accActual, priorBase),
			HasData:                      b.hasData,
		})
	}
	return totals
}

// AggregatePeriodsGrouped partitions observations by a caller-supplied
// grouping key (store, store group, channel, kpi) and aggregates each
// partition with identical accumulation semantics. One implementation for
// every granularity.
func AggregatePeriodsGrouped(observations []*models.DailyObservation, groupKey func(*models.DailyObservation) string, bucketer Bucketer, opts AggregateOptions) map[string][]*models.PeriodTotal {
	partitions := make(map[string][]*models.DailyObservation)
	for _, obs := range observations {
		key := groupKey(obs)
		partitions[key] = append(partitions[key], obs)
	}

	result := make(map[string][]*models.PeriodTotal, len(partitions))
	for key, part := range partitions {
		result[key] = AggregatePeriods(part, bucketer, opts)
	}
	return result
}

// ratioPct returns numerator/denominator*100, or nil when the denominator is
// not positive. The nil is a representable "undefined" state, not an error;
// it must never surface as Infinity or NaN.
func ratioPct(numerator, denominator decimal.Decimal) *decimal.Decimal {
	if !denominator.GreaterThan(decimal.Zero) {
		return nil
	}
	pct := numerator.Div(denominator).Mul(oneHundred)
	return &pct
}
