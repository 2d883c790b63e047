// Package browser wraps a Chromium session behind the minimal surface the
// scroll loop needs, so the loop can be exercised against fakes.
package browser

import (
	"context"
	"time"
)

// Page is the automation surface for a single open listing page.
type Page interface {
	// WaitVisible blocks until an element matching selector is present,
	// failing once the timeout elapses.
	WaitVisible(selector string, timeout time.Duration) error
	// ScrollTop returns the current vertical scroll offset in pixels.
	ScrollTop() (float64, error)
	// DocumentHeight returns the full document height in pixels.
	DocumentHeight() (float64, error)
	// ScrollTo scrolls the viewport to an absolute vertical offset.
	ScrollTo(y float64) error
	// ScrollBy scrolls the viewport by a relative vertical delta.
	ScrollBy(dy float64) error
	// BodyText returns the rendered text of the whole page body.
	BodyText() (string, error)
	// Cards returns handles for every element matching selector.
	Cards(selector string) ([]Card, error)
	// MoveMouse issues a synthetic pointer move to viewport coordinates.
	MoveMouse(x, y float64) error
	// Click clicks the first element matching selector, reporting whether
	// such an element existed.
	Click(selector string) (bool, error)
	// ClickMatch clicks the first element matching selector whose text
	// matches the regular expression pattern.
	ClickMatch(selector, pattern string) (bool, error)
}

// Card is the handle for one rendered catalog entry.
type Card interface {
	// Href returns the card's link target, empty when the attribute is
	// absent.
	Href() (string, error)
	// Text returns the trimmed text of the first descendant matching
	// selector, empty when nothing matches.
	Text(selector string) (string, error)
	// Texts returns the texts of all descendants matching selector.
	Texts(selector string) ([]string, error)
}

// Options configures the launched browser session.
type Options struct {
	Headless  bool
	UserAgent string
	Width     int
	Height    int
}

// DefaultOptions returns the session defaults used by the scraper.
func DefaultOptions() Options {
	return Options{
		Headless: true,
		Width:    1920,
		Height:   1080,
	}
}

// Session owns a browser process and the pages opened from it.
type Session interface {
	// Open navigates a fresh page to url, bounded by timeout.
	Open(ctx context.Context, url string, timeout time.Duration) (Page, error)
	// Close shuts the browser down.
	Close() error
}
