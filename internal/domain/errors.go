package domain

import "errors"

// Sentinel errors surfaced by the rebalancing core. All are fail-fast and
// non-retryable; callers match with errors.Is.
var (
	ErrDuplicateTicker          = errors.New("ticker already added")
	ErrUnknownTicker            = errors.New("ticker has no associated price")
	ErrInvalidPrice             = errors.New("price must be positive")
	ErrPercentagesDoNotSum100   = errors.New("target percentages do not sum to 100%")
	ErrPortfoliosNotSet         = errors.New("live and model portfolios must both be set")
	ErrRoundingBehaviorRequired = errors.New("rounding behavior required but not specified")
	ErrRebalanceDidNotConverge  = errors.New("rebalance did not converge")
)
