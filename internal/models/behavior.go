package models

import (
	"sort"
	"time"
)

// CountEntry is one key of a Counter with its tally
type CountEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Counter is a tally that remembers the order in which keys were first seen.
// That order breaks ties when ranking.
type Counter []CountEntry

// Add increments key by n, appending it if it has not been seen before
func (c *Counter) Add(key string, n int) {
	for i := range *c {
		if (*c)[i].Key == key {
			(*c)[i].Count += n
			return
		}
	}
	*c = append(*c, CountEntry{Key: key, Count: n})
}

// Get returns the count for key, or zero
func (c Counter) Get(key string) int {
	for _, e := range c {
		if e.Key == key {
			return e.Count
		}
	}
	return 0
}

// Top returns up to n entries ordered by count, highest first. Equal counts
// keep first-seen order.
func (c Counter) Top(n int) []CountEntry {
	ranked := make([]CountEntry, len(c))
	copy(ranked, c)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Map flattens the counter for callers that only need lookups
func (c Counter) Map() map[string]int {
	m := make(map[string]int, len(c))
	for _, e := range c {
		m[e.Key] = e.Count
	}
	return m
}

// BehaviorProfile is the per-child rolling aggregate of viewing statistics
type BehaviorProfile struct {
	ID                 string
	ChildID            string
	TotalVideos        int
	TotalWatchSeconds  int64
	StartDate          time.Time
	LastUpdated        time.Time
	Categories         Counter
	Uploaders          Counter
	DaysTracked        int
	ProfileText        string
	ProfileGeneratedAt *time.Time
}

// NewBehaviorProfile returns an empty profile whose tracking starts at now
func NewBehaviorProfile(id, childID string, now time.Time) *BehaviorProfile {
	return &BehaviorProfile{
		ID:          id,
		ChildID:     childID,
		StartDate:   now,
		LastUpdated: now,
		Categories:  Counter{},
		Uploaders:   Counter{},
	}
}

// ElapsedDays is the number of whole 24h periods between the start date and now
func (p *BehaviorProfile) ElapsedDays(now time.Time) int {
	if now.Before(p.StartDate) {
		return 0
	}
	return int(now.Sub(p.StartDate) / (24 * time.Hour))
}

// RefreshDaysTracked recomputes DaysTracked from the clock. The stored value
// never goes down, even if the clock does.
func (p *BehaviorProfile) RefreshDaysTracked(now time.Time) int {
	if days := p.ElapsedDays(now); days > p.DaysTracked {
		p.DaysTracked = days
	}
	return p.DaysTracked
}

// RecordVideo folds one accepted video into the counters
func (p *BehaviorProfile) RecordVideo(durationSeconds int, categories []string, uploader string, now time.Time) {
	p.TotalVideos++
	p.TotalWatchSeconds += int64(durationSeconds)
	for _, category := range categories {
		p.Categories.Add(category, 1)
	}
	p.Uploaders.Add(uploader, 1)
	p.LastUpdated = now
	p.RefreshDaysTracked(now)
}

// HasProfileText reports whether a narrative has been generated
func (p *BehaviorProfile) HasProfileText() bool {
	return p.ProfileText != ""
}

// DaysRemaining is how many more tracked days are needed to reach threshold
func (p *BehaviorProfile) DaysRemaining(threshold int) int {
	if p.DaysTracked >= threshold {
		return 0
	}
	return threshold - p.DaysTracked
}
