package workflow

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/config"
	"bitbucket.org/mmdatafocus/kpi_backend/models"
)

// Period aggregation results are cached per chain under periodAgg:* keys, with
// every key registered in a per-chain Redis set so an event-date change can
// drop the whole chain's entries without a wildcard scan.

func periodCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_PERIOD_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func periodCacheTTL() time.Duration {
	// Env: PERIOD_CACHE_TTL_SECONDS (default 300s)
	ttl := 300
	if v := strings.TrimSpace(os.Getenv("PERIOD_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

func periodCacheKey(chainId, storeCode, channel, kpi string, year int, mode models.YearComparisonMode) string {
	return fmt.Sprintf("periodAgg:%s:%s:%s:%s:%d:%s", chainId, storeCode, channel, kpi, year, mode)
}

func periodCacheSetKey(chainId string) string {
	return "periodAggKeys:" + chainId
}

func getCachedPeriodTotals(key string) ([]*models.PeriodTotal, bool) {
	if !periodCacheEnabled() {
		return nil, false
	}
	var totals []*models.PeriodTotal
	found, err := config.GetRedisObject(key, &totals)
	if err != nil || !found {
		return nil, false
	}
	return totals, true
}

func setCachedPeriodTotals(chainId, key string, totals []*models.PeriodTotal) {
	if !periodCacheEnabled() {
		return
	}
	if err := config.SetRedisObject(key, totals, periodCacheTTL()); err != nil {
		return
	}
	_ = config.AddRedisSet(periodCacheSetKey(chainId), key)
}

// InvalidatePeriodCache drops every cached aggregation for the chain. Called
// after any event-date mutation that can change reference-date resolution.
func InvalidatePeriodCache(chainId string) error {
	members, err := config.GetRedisSetMembers(periodCacheSetKey(chainId))
	if err != nil {
		return err
	}
	if len(members) > 0 {
		if err := config.RemoveRedisKey(members...); err != nil {
			return err
		}
	}
	return config.RemoveRedisKey(periodCacheSetKey(chainId))
}
