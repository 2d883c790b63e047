// Package scraper drives the listing page: it waits for the first card,
// scrolls the lazy loader to exhaustion, and extracts every rendered card
// into a deduplicated record set.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-actors/browser"
	"github.com/aluiziolira/go-scrape-actors/config"
	"github.com/aluiziolira/go-scrape-actors/models"
	"github.com/aluiziolira/go-scrape-actors/pipeline"
)

// Store persists snapshots of the record set.
type Store interface {
	WriteAll(path string, actors []*models.Actor) error
}

// targetCountPattern matches totals like "1,234 actors" in the page text.
var targetCountPattern = regexp.MustCompile(`(\d{1,4}(?:,\d{3})*)\s*actors`)

// Scraper owns one page and one record set for the duration of a run.
type Scraper struct {
	cfg       *config.Config
	page      browser.Page
	store     Store
	extractor *extractor
	Metrics   *Metrics
	rng       *rand.Rand
}

// NewScraper builds a scraper around an already-navigated page.
func NewScraper(cfg *config.Config, page browser.Page, store Store) *Scraper {
	metrics := NewMetrics()
	return &Scraper{
		cfg:       cfg,
		page:      page,
		store:     store,
		extractor: newExtractor(metrics),
		Metrics:   metrics,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run executes the full scrape: wait for the first card marker, read the
// informational total, then scroll until a termination cause fires. Whatever
// was captured is flushed before returning, including on cancellation and on
// unrecoverable failure.
func (s *Scraper) Run(ctx context.Context) (*models.ScrapeResult, error) {
	start := time.Now()

	if err := s.page.WaitVisible(s.cfg.CardSelector, s.cfg.SelectorTimeout); err != nil {
		wrapped := ErrTimeout{Err: err}
		s.Metrics.IncError(errorTypeLabel(wrapped))
		return nil, fmt.Errorf("first card marker never appeared: %w", wrapped)
	}

	target := s.targetCount()
	if target > 0 {
		// Diagnostic only. The loop never gates termination on it.
		slog.Info("total actor count read from page", slog.Int("actors", target))
		s.Metrics.SetTarget(target)
	} else {
		slog.Warn("could not read a total actor count from the page")
	}

	set := models.NewActorSet()
	result, loopErr := s.runLoop(ctx, set)
	result.TargetCount = target
	result.StartTime = start
	result.EndTime = time.Now()
	result.Actors = set.All()

	slog.Info("scroll loop finished",
		slog.String("reason", string(result.Reason)),
		slog.Int("attempts", result.Attempts),
		slog.Int("captured", len(result.Actors)),
	)

	s.persistAtExit(result)
	return result, loopErr
}

// targetCount scans the visible page text for the advertised total. Best
// effort: any failure leaves the count unset.
func (s *Scraper) targetCount() int {
	text, err := s.page.BodyText()
	if err != nil {
		slog.Warn("reading page text for total count failed", slog.Any("error", err))
		return 0
	}
	match := targetCountPattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}
	count, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0
	}
	return count
}

// persistAtExit flushes the record set under the exit-appropriate name.
// Best effort: a failed write is logged and the records stay in memory for
// the caller's own export.
func (s *Scraper) persistAtExit(result *models.ScrapeResult) {
	if len(result.Actors) == 0 {
		slog.Warn("no records captured, nothing to save at loop exit")
		return
	}

	path := pipeline.FinalPath(s.cfg.CheckpointPrefix, len(result.Actors))
	if result.Reason == models.ReasonCancelled {
		path = pipeline.InterruptedPath(s.cfg.CheckpointPrefix, len(result.Actors))
	}

	if err := s.store.WriteAll(path, result.Actors); err != nil {
		slog.Error("exit snapshot failed",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return
	}
	slog.Info("record set saved",
		slog.String("path", path),
		slog.Int("actors", len(result.Actors)),
	)
}
