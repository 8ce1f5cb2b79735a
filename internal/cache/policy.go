package cache

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Policy resolves the TTL for a cache category.
type Policy struct {
	DefaultTTL int            `json:"default_ttl" yaml:"default_ttl"`
	Overrides  map[string]int `json:"category_overrides" yaml:"category_overrides"`
}

// NewPolicy creates a policy. A negative default TTL is clamped to zero.
func NewPolicy(defaultTTL int, overrides map[string]int) Policy {
	if defaultTTL < 0 {
		defaultTTL = 0
	}
	copied := make(map[string]int, len(overrides))
	for k, v := range overrides {
		copied[k] = v
	}
	return Policy{DefaultTTL: defaultTTL, Overrides: copied}
}

// ParseOverrides parses "category:ttl,category:ttl". Malformed items are logged
// and skipped; the last occurrence of a category wins.
func ParseOverrides(s string) map[string]int {
	result := make(map[string]int)
	if strings.TrimSpace(s) == "" {
		return result
	}

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		category, rawTTL, ok := strings.Cut(item, ":")
		category = strings.TrimSpace(category)
		if !ok || category == "" {
			log.Warn().Str("entry", item).Msg("Skipping malformed cache override")
			continue
		}
		ttl, err := strconv.Atoi(strings.TrimSpace(rawTTL))
		if err != nil || ttl < 0 {
			log.Warn().Str("entry", item).Msg("Skipping cache override with invalid ttl")
			continue
		}
		result[category] = ttl
	}
	return result
}

// Resolve returns the TTL in seconds for a category.
func (p Policy) Resolve(category string) int {
	if ttl, ok := p.Overrides[category]; ok {
		return ttl
	}
	return p.DefaultTTL
}

// FallbackTTL returns the TTL for data obtained from a fallback source.
func (p Policy) FallbackTTL(category string) int {
	return p.Resolve(category) / 2
}
