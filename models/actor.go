// Package models defines data structures for the scraper.
package models

import "time"

// Actor represents one store listing entry. Field values are stored exactly
// as rendered; users and rating keep their display form ("12.3k", "4.6").
type Actor struct {
	URL         string `csv:"url" json:"url"`
	Title       string `csv:"title" json:"title"`
	Slug        string `csv:"slug" json:"slug"`
	Description string `csv:"description" json:"description"`
	Author      string `csv:"author" json:"author"`
	Users       string `csv:"users" json:"users"`
	Rating      string `csv:"rating" json:"rating"`
}

// TerminationReason explains why the scroll loop stopped.
type TerminationReason string

const (
	ReasonMaxAttempts TerminationReason = "max_attempts"
	ReasonNoNewItems  TerminationReason = "no_new_items"
	ReasonCancelled   TerminationReason = "cancelled"
	ReasonFailure     TerminationReason = "failure"
)

// ScrapeResult holds the overall result of a scraping run.
type ScrapeResult struct {
	Actors      []*Actor
	StartTime   time.Time
	EndTime     time.Time
	Attempts    int
	Stalls      int
	Recoveries  int
	Checkpoints int
	TargetCount int // 0 when the page never exposed a total
	Reason      TerminationReason
}
