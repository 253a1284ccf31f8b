package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tier is a loyalty level. Tiers are ordered; TierUnset is the zero value
// and means no tier has been recorded yet.
type Tier int

const (
	TierUnset Tier = iota
	TierBasic
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
)

var tierNames = map[Tier]string{
	TierBasic:    "Basic",
	TierBronze:   "Bronze",
	TierSilver:   "Silver",
	TierGold:     "Gold",
	TierPlatinum: "Platinum",
}

// String returns the tier label, or "" for TierUnset.
func (t Tier) String() string {
	return tierNames[t]
}

// IsSet reports whether t is a known, recorded tier.
func (t Tier) IsSet() bool {
	_, ok := tierNames[t]
	return ok
}

// ParseTier maps a label onto a Tier, ignoring case and surrounding space.
func ParseTier(s string) (Tier, error) {
	s = strings.TrimSpace(s)
	for t, name := range tierNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return TierUnset, fmt.Errorf("unknown loyalty tier %q", s)
}

// MarshalJSON encodes the tier as its label.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts a tier label; the empty string decodes to TierUnset.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*t = TierUnset
		return nil
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
