// Package alertview derives display lists from an alert collection.
package alertview

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"audiosurv/internal/alerts"
)

// SortOrder selects the ordering of a derived view.
type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
	SortThreat SortOrder = "threat"
)

// SortOrders lists the accepted orders.
var SortOrders = []SortOrder{SortNewest, SortOldest, SortThreat}

// ParseSortOrder accepts an order name in any letter case. Empty means newest.
func ParseSortOrder(value string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(SortNewest):
		return SortNewest, nil
	case string(SortOldest):
		return SortOldest, nil
	case string(SortThreat):
		return SortThreat, nil
	default:
		return "", fmt.Errorf("%w: unknown sort order %q (want newest, oldest or threat)", alerts.ErrValidation, value)
	}
}

// DeriveView filters list by keyword and orders it. The input is not modified.
// Ties keep their collection order for every sort.
func DeriveView(list []alerts.Alert, order SortOrder, filter string) []alerts.Alert {
	out := make([]alerts.Alert, 0, len(list))
	if filter == "" {
		for _, a := range list {
			out = append(out, a.Clone())
		}
	} else {
		fold := cases.Fold()
		needle := fold.String(filter)
		for _, a := range list {
			if strings.Contains(fold.String(a.KeywordDetected), needle) {
				out = append(out, a.Clone())
			}
		}
	}

	switch order {
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
	case SortThreat:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ThreatRating.Rank() < out[j].ThreatRating.Rank()
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	}
	return out
}

// MostRecent returns the alert with the latest timestamp, regardless of any
// active view. The earliest in collection order wins a tie.
func MostRecent(list []alerts.Alert) (alerts.Alert, bool) {
	if len(list) == 0 {
		return alerts.Alert{}, false
	}
	best := 0
	for i := 1; i < len(list); i++ {
		if list[i].Timestamp.After(list[best].Timestamp) {
			best = i
		}
	}
	return list[best].Clone(), true
}

// ThreatSummary counts alerts by rating.
type ThreatSummary struct {
	High        int `json:"high"`
	Medium      int `json:"medium"`
	Low         int `json:"low"`
	Total       int `json:"total"`
	Preliminary int `json:"preliminary"`
}

// Summarize tallies list by threat rating. Alerts with an unknown rating only
// count toward Total.
func Summarize(list []alerts.Alert) ThreatSummary {
	var s ThreatSummary
	for _, a := range list {
		s.Total++
		if a.IsPreliminary() {
			s.Preliminary++
		}
		switch a.ThreatRating {
		case alerts.ThreatHigh:
			s.High++
		case alerts.ThreatMedium:
			s.Medium++
		case alerts.ThreatLow:
			s.Low++
		}
	}
	return s
}
