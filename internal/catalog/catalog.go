// Package catalog holds the read-only package table that maps plan and
// processor price identifiers to session quotas.
package catalog

import (
	"errors"
	"strings"

	"github.com/qs3c/academy_server/config"
)

var ErrUnknownPlan = errors.New("subscription plan not found in package catalog")

type Plan struct {
	ID                  string
	Name                string
	MonthlyPrice        float64
	BillingInterval     string
	MaxSessions         int
	Features            []string
	SiblingDiscountTier string
	PriceIDs            []string
}

// Catalog is safe for concurrent reads; it is never mutated after New.
type Catalog struct {
	plans []Plan
}

func New(cfg config.CatalogConfig) *Catalog {
	plans := make([]Plan, 0, len(cfg.Plans))
	for _, p := range cfg.Plans {
		plans = append(plans, Plan{
			ID:                  p.ID,
			Name:                p.Name,
			MonthlyPrice:        p.MonthlyPrice,
			BillingInterval:     p.BillingInterval,
			MaxSessions:         p.MaxSessions,
			Features:            append([]string(nil), p.Features...),
			SiblingDiscountTier: p.SiblingDiscountTier,
			PriceIDs:            append([]string(nil), p.PriceIDs...),
		})
	}
	return &Catalog{plans: plans}
}

// All 按配置顺序返回所有套餐
func (c *Catalog) All() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

// Lookup resolves a subscription's package id. Processor price ids and plan
// ids are not 1:1, so an exact match is tried first. Otherwise the incoming id
// must contain a plan id or price id; the longest contained identifier wins.
// An id that names two unrelated plans resolves to nothing.
func (c *Catalog) Lookup(packageID string) (Plan, error) {
	id := strings.TrimSpace(packageID)
	if id == "" {
		return Plan{}, ErrUnknownPlan
	}

	for _, p := range c.plans {
		if p.ID == id {
			return p, nil
		}
		for _, price := range p.PriceIDs {
			if price == id {
				return p, nil
			}
		}
	}

	lower := strings.ToLower(id)
	best := -1
	bestKey := ""
	matched := make(map[int]string)
	for i, p := range c.plans {
		for _, key := range append([]string{p.ID}, p.PriceIDs...) {
			key = strings.ToLower(strings.TrimSpace(key))
			if key == "" || !strings.Contains(lower, key) {
				continue
			}
			if len(key) > len(matched[i]) {
				matched[i] = key
			}
			if len(key) > len(bestKey) {
				best, bestKey = i, key
			}
		}
	}
	if best < 0 {
		return Plan{}, ErrUnknownPlan
	}

	// 其他套餐的命中必须被最长命中覆盖，否则视为歧义
	for i, key := range matched {
		if i != best && !strings.Contains(bestKey, key) {
			return Plan{}, ErrUnknownPlan
		}
	}
	return c.plans[best], nil
}
