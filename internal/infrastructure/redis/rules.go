package redis

import (
	"context"
	"encoding/json"
	"errors"

	"online-auction/internal/domain"

	"github.com/go-redis/redis/v8"
)

// BiddingRules loads the tiered minimum-increment policy from Redis,
// seeding defaults on first run. The thresholds belong to the CRUD
// layer's configuration, not to arbitration itself.
type BiddingRules struct {
	client *redis.Client
	rules  *domain.BidValidationRules
}

func NewBiddingRules(client *redis.Client) *BiddingRules {
	return &BiddingRules{client: client}
}

func (v *BiddingRules) LoadRules(ctx context.Context) error {
	data, err := v.client.Get(ctx, "bid_validation_rules").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Set default rules
			v.rules = &domain.BidValidationRules{
				Rules: map[string]float64{
					"0-100":   5.0,
					"100-500": 10.0,
					"500+":    25.0,
				},
			}
			return v.saveRules(ctx)
		}
		return err
	}

	var rules domain.BidValidationRules
	if err := json.Unmarshal([]byte(data), &rules); err != nil {
		return err
	}

	v.rules = &rules
	return nil
}

func (v *BiddingRules) saveRules(ctx context.Context) error {
	data, err := json.Marshal(v.rules)
	if err != nil {
		return err
	}

	return v.client.Set(ctx, "bid_validation_rules", string(data), 0).Err()
}

func (v *BiddingRules) MinimumBid(currentAmount float64) float64 {
	return currentAmount + v.IncrementRule(currentAmount)
}

func (v *BiddingRules) IncrementRule(amount float64) float64 {
	if v.rules == nil {
		return 5.0 // default
	}
	if amount < 100 {
		return v.rules.Rules["0-100"]
	} else if amount < 500 {
		return v.rules.Rules["100-500"]
	} else {
		return v.rules.Rules["500+"]
	}
}
