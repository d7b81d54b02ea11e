// Package delivery prices delivery for free-text drop-off locations.
package delivery

import "strings"

type Zone struct {
	Name string `json:"name" mapstructure:"name"`
	Fee  int64  `json:"fee" mapstructure:"fee"`
}

// Policy maps a free-text location to a delivery fee. Matching is by
// lower-cased substring against the configured zone names; the free-delivery
// keyword short-circuits to zero; anything unmatched (including an empty
// location) pays the default zone's fee.
type Policy struct {
	Zones       []Zone
	FreeKeyword string
	DefaultZone string
}

func (p Policy) Fee(location string) int64 {
	def := p.defaultFee()
	if strings.TrimSpace(location) == "" {
		return def
	}

	loc := strings.ToLower(location)
	if p.FreeKeyword != "" && strings.Contains(loc, strings.ToLower(p.FreeKeyword)) {
		return 0
	}

	for _, z := range p.Zones {
		if z.Name == p.DefaultZone {
			continue
		}
		if strings.Contains(loc, strings.ToLower(z.Name)) {
			return z.Fee
		}
	}
	return def
}

func (p Policy) defaultFee() int64 {
	for _, z := range p.Zones {
		if z.Name == p.DefaultZone {
			return z.Fee
		}
	}
	return 0
}
