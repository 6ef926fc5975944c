package models

type ApprovalState string

const (
	ApprovalStatePending  ApprovalState = "Pending"
	ApprovalStateApproved ApprovalState = "Approved"
	ApprovalStateRejected ApprovalState = "Rejected"
)

func (s ApprovalState) Valid() bool {
	switch s {
	case ApprovalStatePending, ApprovalStateApproved, ApprovalStateRejected:
		return true
	}
	return false
}

// YearComparisonMode selects the prior-year base used for the
// attainment-vs-prior-year ratio.
type YearComparisonMode string

const (
	// YearComparisonPrior compares against the same calendar day one year back.
	YearComparisonPrior YearComparisonMode = "PriorYear"
	// YearComparisonPriorAdjusted compares against the weekday-aligned day one
	// year back (moving holidays re-mapped through event reference dates).
	YearComparisonPriorAdjusted YearComparisonMode = "PriorYearAdjusted"
)

func (m YearComparisonMode) Valid() bool {
	switch m {
	case YearComparisonPrior, YearComparisonPriorAdjusted:
		return true
	}
	return false
}

// StatusFilter narrows period query results after resolution.
type StatusFilter string

const (
	StatusFilterAll      StatusFilter = "All"
	StatusFilterPending  StatusFilter = StatusFilter(ApprovalStatePending)
	StatusFilterApproved StatusFilter = StatusFilter(ApprovalStateApproved)
	StatusFilterRejected StatusFilter = StatusFilter(ApprovalStateRejected)
)

func (f StatusFilter) Valid() bool {
	switch f {
	case StatusFilterAll, StatusFilterPending, StatusFilterApproved, StatusFilterRejected:
		return true
	}
	return false
}

// ChannelAll is the wildcard sales channel.
const ChannelAll = "All"
