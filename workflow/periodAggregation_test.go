package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the accumulation
// semantics on in-memory observations; loading the rows is plain gorm and is
// covered by integration environments that can run MySQL.

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func obs(date time.Time, budget, actual, prior, priorAdj float64) *models.DailyObservation {
	o := &models.DailyObservation{
		ChainId:                 "chain-1",
		StoreCode:               "S01",
		Channel:                 models.ChannelAll,
		Kpi:                     "NetSales",
		ObservationDate:         date,
		BudgetAmount:            decimal.NewFromFloat(budget),
		ActualAmount:            decimal.NewFromFloat(actual),
		PriorYearAmount:         decimal.NewFromFloat(prior),
		PriorYearAdjustedAmount: decimal.NewFromFloat(priorAdj),
	}
	if o.HasReportedActual() {
		o.BudgetDaysWithDataAmount = o.BudgetAmount
		o.PriorYearDaysWithDataAmount = o.PriorYearAmount
		o.PriorYearAdjustedDaysWithDataAmount = o.PriorYearAdjustedAmount
	}
	return o
}

func TestAggregatePeriods_PartialMonthAttainment(t *testing.T) {
	// 10 days budgeted at 100 each; actuals reported for the first 9 days
	// plus a tenth day with data, totaling 950 against 1000 with-data budget.
	var observations []*models.DailyObservation
	for i := 1; i <= 10; i++ {
		observations = append(observations, obs(day(2025, time.May, i), 100, 95, 90, 92))
	}
	// Rest of the month budgeted but unreported.
	for i := 11; i <= 31; i++ {
		observations = append(observations, obs(day(2025, time.May, i), 100, 0, 0, 0))
	}

	totals := AggregatePeriods(observations, MonthBucketer, AggregateOptions{})
	if len(totals) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(totals))
	}
	got := totals[0]
	if got.Bucket != "2025-05" {
		t.Fatalf("expected bucket 2025-05, got %s", got.Bucket)
	}
	if !got.BudgetFull.Equal(decimal.NewFromInt(3100)) {
		t.Fatalf("expected full budget 3100, got %s", got.BudgetFull)
	}
	if !got.BudgetAccumulated.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("expected with-data budget 1000, got %s", got.BudgetAccumulated)
	}
	if !got.ActualAccumulated.Equal(decimal.NewFromInt(950)) {
		t.Fatalf("expected actual 950, got %s", got.ActualAccumulated)
	}
	if got.AttainmentPct == nil {
		t.Fatal("expected attainment to be defined")
	}
	if !got.AttainmentPct.Equal(decimal.NewFromInt(95)) {
		t.Fatalf("expected attainment 95%%, got %s", got.AttainmentPct)
	}
	if !got.HasData {
		t.Fatal("expected bucket to report data")
	}
}

func TestAggregatePeriods_CutoffDayInclusive(t *testing.T) {
	observations := []*models.DailyObservation{
		obs(day(2025, time.May, 14), 100, 100, 0, 0),
		obs(day(2025, time.May, 15), 100, 100, 0, 0),
		obs(day(2025, time.May, 16), 100, 100, 0, 0),
	}
	// Cutoff carries a non-midnight wall clock; the whole cutoff day must
	// still count.
	cutoff := time.Date(2025, time.May, 15, 17, 45, 3, 0, time.UTC)

	totals := AggregatePeriods(observations, MonthBucketer, AggregateOptions{Cutoff: &cutoff})
	if len(totals) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(totals))
	}
	if !totals[0].ActualAccumulated.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected actuals through May 15 = 200, got %s", totals[0].ActualAccumulated)
	}
	if !totals[0].BudgetFull.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("full budget must ignore the cutoff, got %s", totals[0].BudgetFull)
	}
}

func TestAggregatePeriods_ZeroDenominatorIsNil(t *testing.T) {
	observations := []*models.DailyObservation{
		obs(day(2025, time.June, 1), 100, 0, 0, 0),
		obs(day(2025, time.June, 2), 100, 0, 0, 0),
	}

	totals := AggregatePeriods(observations, MonthBucketer, AggregateOptions{})
	if len(totals) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(totals))
	}
	got := totals[0]
	if got.AttainmentPct != nil {
		t.Fatalf("expected undefined attainment, got %s", got.AttainmentPct)
	}
	if got.AttainmentVsPriorYearPct != nil {
		t.Fatalf("expected undefined prior-year attainment, got %s", got.AttainmentVsPriorYearPct)
	}
	if got.HasData {
		t.Fatal("bucket without positive actuals must not report data")
	}
}

func TestAggregatePeriods_AccumulatesAcrossBuckets(t *testing.T) {
	observations := []*models.DailyObservation{
		obs(day(2025, time.January, 10), 100, 110, 100, 105),
		obs(day(2025, time.February, 10), 200, 180, 150, 155),
		obs(day(2025, time.March, 10), 300, 330, 200, 210),
	}

	totals := AggregatePeriods(observations, MonthBucketer, AggregateOptions{})
	if len(totals) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(totals))
	}

	wantActual := []int64{110, 290, 620}
	wantBudget := []int64{100, 300, 600}
	prevActual := decimal.Zero
	for i, total := range totals {
		if !total.ActualAccumulated.Equal(decimal.NewFromInt(wantActual[i])) {
			t.Fatalf("bucket %s: expected accumulated actual %d, got %s", total.Bucket, wantActual[i], total.ActualAccumulated)
		}
		if !total.BudgetAccumulated.Equal(decimal.NewFromInt(wantBudget[i])) {
			t.Fatalf("bucket %s: expected accumulated budget %d, got %s", total.Bucket, wantBudget[i], total.BudgetAccumulated)
		}
		if total.ActualAccumulated.LessThan(prevActual) {
			t.Fatalf("accumulated actual decreased at bucket %s", total.Bucket)
		}
		prevActual = total.ActualAccumulated
	}
}

func TestAggregatePeriods_FutureBucketCarriesAccumulated(t *testing.T) {
	observations := []*models.DailyObservation{
		obs(day(2025, time.April, 5), 100, 120, 0, 0),
		// May is entirely in the future relative to the cutoff.
		obs(day(2025, time.May, 5), 150, 0, 0, 0),
	}
	cutoff := day(2025, time.April, 30)

	totals := AggregatePeriods(observations, MonthBucketer, AggregateOptions{Cutoff: &cutoff})
	if len(totals) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(totals))
	}
	future := totals[1]
	if future.Bucket != "2025-05" {
		t.Fatalf("expected second bucket 2025-05, got %s", future.Bucket)
	}
	if !future.ActualAccumulated.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("future bucket must carry the running actual, got %s", future.ActualAccumulated)
	}
	if !future.BudgetFull.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("future bucket keeps its own full budget, got %s", future.BudgetFull)
	}
	if future.HasData {
		t.Fatal("future bucket must not report data")
	}
}

func TestAggregatePeriods_ModeSelectsPriorYearBase(t *testing.T) {
	observations := []*models.DailyObservation{
		obs(day(2025, time.July, 1), 100, 100, 200, 50),
	}

	adjusted := AggregatePeriods(observations, MonthBucketer, AggregateOptions{Mode: models.YearComparisonPriorAdjusted})
	raw := AggregatePeriods(observations, MonthBucketer, AggregateOptions{Mode: models.YearComparisonPrior})

	if adjusted[0].AttainmentVsPriorYearPct == nil || raw[0].AttainmentVsPriorYearPct == nil {
		t.Fatal("expected both prior-year attainments to be defined")
	}
	if !adjusted[0].AttainmentVsPriorYearPct.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("adjusted mode: expected 200%%, got %s", adjusted[0].AttainmentVsPriorYearPct)
	}
	if !raw[0].AttainmentVsPriorYearPct.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("raw mode: expected 50%%, got %s", raw[0].AttainmentVsPriorYearPct)
	}
}

func TestAggregatePeriodsGrouped_PartitionsAreIndependent(t *testing.T) {
	a := obs(day(2025, time.March, 1), 100, 50, 0, 0)
	b := obs(day(2025, time.March, 1), 100, 80, 0, 0)
	b.StoreCode = "S02"

	grouped := AggregatePeriodsGrouped(
		[]*models.DailyObservation{a, b},
		func(o *models.DailyObservation) string { return o.StoreCode },
		MonthBucketer,
		AggregateOptions{},
	)
	if len(grouped) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(grouped))
	}
	if !grouped["S01"][0].ActualAccumulated.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("S01: expected 50, got %s", grouped["S01"][0].ActualAccumulated)
	}
	if !grouped["S02"][0].ActualAccumulated.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("S02: expected 80, got %s", grouped["S02"][0].ActualAccumulated)
	}
}
