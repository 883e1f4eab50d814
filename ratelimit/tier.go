package ratelimit

import (
	"fmt"
	"time"
)

// Tier selects a limit class.
type Tier string

const (
	TierAPI        Tier = "api"
	TierAuth       Tier = "auth"
	TierAdmin      Tier = "admin"
	TierSuperAdmin Tier = "super-admin"
)

// DefaultWindow is the window for all built-in tiers.
const DefaultWindow = time.Minute

// Limit is the budget of one tier.
type Limit struct {
	Requests int
	Window   time.Duration
}

// DefaultLimits returns the built-in tier budgets.
func DefaultLimits() map[Tier]Limit {
	return map[Tier]Limit{
		TierAPI:        {Requests: 100, Window: DefaultWindow},
		TierAuth:       {Requests: 5, Window: DefaultWindow},
		TierAdmin:      {Requests: 200, Window: DefaultWindow},
		TierSuperAdmin: {Requests: 500, Window: DefaultWindow},
	}
}

func (l Limit) validate(t Tier) error {
	if l.Requests <= 0 {
		return fmt.Errorf("ratelimit: tier %q requests must be > 0", t)
	}
	if l.Window < time.Millisecond {
		return fmt.Errorf("ratelimit: tier %q window must be >= 1ms", t)
	}
	return nil
}
