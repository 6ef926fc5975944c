package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/config"
	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"bitbucket.org/mmdatafocus/kpi_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PeriodEventQuery selects event occurrences for a reporting window.
type PeriodEventQuery struct {
	From   time.Time
	To     time.Time
	Status models.StatusFilter
	// Channel narrows to one sales channel. Empty or "All" matches every row,
	// including channel-specific ones; a concrete channel also matches rows
	// scoped to the "All" wildcard.
	Channel string
	// StoreCode narrows scope. A concrete store matches chain-wide rows,
	// group rows containing the store, and the store's own rows.
	StoreCode string
}

func (q PeriodEventQuery) validateRange() error {
	if q.From.IsZero() || q.To.IsZero() {
		return utils.NewValidationError("period range requires both from and to dates")
	}
	if utils.DateOnly(q.From).After(utils.DateOnly(q.To)) {
		return utils.NewValidationError("period range start is after its end")
	}
	if q.Status != "" && !q.Status.Valid() {
		return utils.NewFieldValidationError("status", "must be All, Pending, Approved or Rejected")
	}
	return nil
}

// QueryPeriodEventDates returns all event occurrences whose nominal date falls
// inside [From, To] inclusive, joined with their catalog entries, ordered by
// nominal date ascending. Status filtering happens after resolution so the
// offset math is identical for every state.
func QueryPeriodEventDates(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, q PeriodEventQuery) ([]ResolvedEventDate, error) {
	if err := q.validateRange(); err != nil {
		return nil, err
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("missing chain id")
	}

	from := utils.DateOnly(q.From)
	to := utils.DateOnly(q.To)

	query := tx.Where("chain_id = ? AND nominal_date >= ? AND nominal_date <= ?", chainId, from, to)
	if q.Channel != "" && q.Channel != models.ChannelAll {
		query = query.Where("channel IN ?", []string{q.Channel, models.ChannelAll})
	}
	if q.StoreCode != "" {
		memberGroups := tx.Model(&models.StoreGroupMember{}).
			Select("store_group_id").Where("store_code = ?", q.StoreCode)
		query = query.Where(
			"(store_group_id IS NULL AND store_code IS NULL) OR store_code = ? OR store_group_id IN (?)",
			q.StoreCode, memberGroups)
	}

	var dates []models.EventDate
	if err := query.Order("nominal_date asc, id asc").Find(&dates).Error; err != nil {
		config.LogError(logger, "periodQueryWorkflow.go", "QueryPeriodEventDates", "FindDates", q, err)
		return nil, err
	}

	eventIds := make([]int, 0, len(dates))
	for _, d := range dates {
		eventIds = append(eventIds, d.EventId)
	}
	catalog := make(map[int]models.AdjustmentEvent)
	if len(eventIds) > 0 {
		var events []models.AdjustmentEvent
		err := tx.Where("chain_id = ? AND id IN ?", chainId, utils.UniqueSlice(eventIds)).Find(&events).Error
		if err != nil {
			config.LogError(logger, "periodQueryWorkflow.go", "QueryPeriodEventDates", "FindEvents", eventIds, err)
			return nil, err
		}
		for _, e := range events {
			if e.IsInternal && !caps.CanManageEvents {
				continue
			}
			catalog[e.ID] = e
		}
	}

	resolved := ResolveEventDates(dates, catalog)
	if q.Status != "" && q.Status != models.StatusFilterAll {
		filtered := resolved[:0]
		for _, r := range resolved {
			if r.EventDate.ApprovalState == models.ApprovalState(q.Status) {
				filtered = append(filtered, r)
			}
		}
		resolved = filtered
	}
	return MapEventsToRange(resolved, from, to), nil
}

// QueryYearEventDates is the full-calendar-year convenience variant of
// QueryPeriodEventDates.
func QueryYearEventDates(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, caps models.ActorCapabilities, year int, status models.StatusFilter) ([]ResolvedEventDate, error) {
	if year <= 0 {
		return nil, utils.NewFieldValidationError("year", "required")
	}
	return QueryPeriodEventDates(ctx, tx, logger, caps, PeriodEventQuery{
		From:   time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		To:     time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		Status: status,
	})
}

// PeriodTotalsQuery selects daily observations for the aggregation run.
type PeriodTotalsQuery struct {
	StoreCode string
	Channel   string
	Kpi       string
	Year      int
	// Cutoff limits actuals to days on/before this date. Nil means today.
	Cutoff *time.Time
	Mode   models.YearComparisonMode
}

// QueryPeriodTotals loads one year of observations and aggregates them into
// monthly totals, serving from the per-chain Redis cache when possible.
func QueryPeriodTotals(ctx context.Context, tx *gorm.DB, logger *logrus.Logger, q PeriodTotalsQuery) ([]*models.PeriodTotal, error) {
	if q.Year <= 0 {
		return nil, utils.NewFieldValidationError("year", "required")
	}
	chainId, ok := utils.GetChainIdFromContext(ctx)
	if !ok {
		return nil, utils.NewValidationError("missing chain id")
	}

	mode := q.Mode
	if !mode.Valid() {
		mode = models.YearComparisonPrior
		if config.DefaultYearComparisonAdjusted() {
			mode = models.YearComparisonPriorAdjusted
		}
	}

	cacheKey := periodCacheKey(chainId, q.StoreCode, q.Channel, q.Kpi, q.Year, mode)
	if totals, hit := getCachedPeriodTotals(cacheKey); hit {
		return totals, nil
	}

	yearStart := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(q.Year, time.December, 31, 0, 0, 0, 0, time.UTC)

	query := tx.Where("chain_id = ? AND observation_date >= ? AND observation_date <= ?", chainId, yearStart, yearEnd)
	if q.StoreCode != "" {
		query = query.Where("store_code = ?", q.StoreCode)
	}
	if q.Channel != "" && q.Channel != models.ChannelAll {
		query = query.Where("channel = ?", q.Channel)
	}
	if q.Kpi != "" {
		query = query.Where("kpi = ?", q.Kpi)
	}

	var observations []*models.DailyObservation
	if err := query.Find(&observations).Error; err != nil {
		config.LogError(logger, "periodQueryWorkflow.go", "QueryPeriodTotals", "FindObservations", q, err)
		return nil, err
	}

	cutoff := q.Cutoff
	if cutoff == nil {
		now := time.Now()
		cutoff = &now
	}
	totals := AggregatePeriods(observations, MonthBucketer, AggregateOptions{Cutoff: cutoff, Mode: mode})

	setCachedPeriodTotals(chainId, cacheKey, totals)
	return totals, nil
}
