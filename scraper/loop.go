package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aluiziolira/go-scrape-actors/models"
	"github.com/aluiziolira/go-scrape-actors/pipeline"
)

// runLoop drives the scroll/extract cycle until one of the three termination
// causes fires: the stall streak hits its threshold after recovery attempts,
// the attempt ceiling is reached, or the browser session fails.
func (s *Scraper) runLoop(ctx context.Context, set *models.ActorSet) (*models.ScrapeResult, error) {
	result := &models.ScrapeResult{Reason: models.ReasonMaxAttempts}
	prevCount := 0
	stalls := 0

	for result.Attempts < s.cfg.MaxAttempts {
		if ctx.Err() != nil {
			result.Reason = models.ReasonCancelled
			return result, nil
		}
		result.Attempts++
		s.Metrics.IncIteration()

		nearBottom, err := s.gradualScroll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				result.Reason = models.ReasonCancelled
				return result, nil
			}
			result.Reason = models.ReasonFailure
			s.Metrics.IncError(errorTypeLabel(err))
			return result, fmt.Errorf("scroll iteration %d: %w", result.Attempts, err)
		}

		cards, err := s.page.Cards(s.cfg.CardSelector)
		if err != nil {
			result.Reason = models.ReasonFailure
			wrapped := ErrEvaluation{Err: err}
			s.Metrics.IncError(errorTypeLabel(wrapped))
			return result, fmt.Errorf("query cards at iteration %d: %w", result.Attempts, wrapped)
		}
		count := len(cards)
		s.Metrics.SetCardsRendered(count)

		if count == prevCount {
			stalls++
			result.Stalls++
			s.Metrics.IncStall()
			slog.Info("no new cards rendered",
				slog.Int("streak", stalls),
				slog.Int("threshold", s.cfg.StallThreshold),
			)
			if stalls >= s.cfg.RecoveryThreshold {
				result.Recoveries++
				s.Metrics.IncRecovery()
				if s.recoverFromStall(ctx, nearBottom) {
					// A clicked control earns the loader a fresh
					// stall budget, not a fresh attempt budget.
					stalls = 0
				}
				if stalls >= s.cfg.StallThreshold {
					result.Reason = models.ReasonNoNewItems
					break
				}
			}
		} else {
			stalls = 0
		}
		prevCount = count

		// Every rendered card, every iteration. Captured cards are
		// skipped by identifier, so a DOM reflow that reorders cards
		// cannot lose or duplicate records.
		s.extractor.extractAll(cards, set)

		slog.Info("scroll progress",
			slog.Int("cards", count),
			slog.Int("captured", set.Len()),
			slog.Int("attempt", result.Attempts),
			slog.Int("max_attempts", s.cfg.MaxAttempts),
		)

		if err := s.pause(ctx, s.cfg.IterDelayMin, s.cfg.IterDelayMax); err != nil {
			result.Reason = models.ReasonCancelled
			return result, nil
		}

		if result.Attempts%s.cfg.LongPauseEvery == 0 {
			slog.Debug("longer pause to let the page settle")
			if err := s.pause(ctx, s.cfg.LongPauseMin, s.cfg.LongPauseMax); err != nil {
				result.Reason = models.ReasonCancelled
				return result, nil
			}
		}
		if set.Len() > 0 && result.Attempts%s.cfg.CheckpointEvery == 0 {
			s.checkpoint(set, result)
		}
	}

	return result, nil
}

// gradualScroll advances the viewport in small jittered steps toward a
// bounded forward target. A single large jump risks the lazy loader never
// firing. It reports whether the viewport ended up near the document bottom.
func (s *Scraper) gradualScroll(ctx context.Context) (bool, error) {
	pos, err := s.page.ScrollTop()
	if err != nil {
		return false, ErrEvaluation{Err: err}
	}
	height, err := s.page.DocumentHeight()
	if err != nil {
		return false, ErrEvaluation{Err: err}
	}

	// Stop short of the document end so the loader still has room to
	// append content below the viewport.
	target := math.Min(pos+float64(s.cfg.ScrollBudget), height-float64(s.cfg.BottomGap))
	for pos < target {
		pos = math.Min(pos+float64(s.cfg.ScrollStep), target)
		if err := s.page.ScrollTo(pos); err != nil {
			return false, ErrEvaluation{Err: err}
		}
		if err := s.pause(ctx, s.cfg.StepDelayMin, s.cfg.StepDelayMax); err != nil {
			return false, err
		}
	}

	if err := s.pause(ctx, s.cfg.SettleDelayMin, s.cfg.SettleDelayMax); err != nil {
		return false, err
	}
	return pos >= height-float64(s.cfg.NearBottomMargin), nil
}

// recoverFromStall nudges the lazy loader: a synthetic pointer move to a
// random viewport point, a harder forced scroll, and, near the bottom only, a
// load-more or next-page click. It reports whether a control was clicked.
// Interaction failures are logged and the loop keeps accumulating stalls.
func (s *Scraper) recoverFromStall(ctx context.Context, nearBottom bool) bool {
	x := 100 + s.rng.Float64()*900
	y := 100 + s.rng.Float64()*500
	if err := s.page.MoveMouse(x, y); err != nil {
		wrapped := ErrInteraction{Err: err}
		s.Metrics.IncError(errorTypeLabel(wrapped))
		slog.Warn("pointer move failed", slog.Any("error", wrapped))
	}

	if err := s.page.ScrollBy(float64(s.cfg.RecoveryScrollBy)); err != nil {
		wrapped := ErrInteraction{Err: err}
		s.Metrics.IncError(errorTypeLabel(wrapped))
		slog.Warn("forced scroll failed", slog.Any("error", wrapped))
	}
	if err := s.pause(ctx, s.cfg.RecoveryDelayMin, s.cfg.RecoveryDelayMax); err != nil {
		return false
	}

	if !nearBottom {
		return false
	}

	clicked, err := s.page.ClickMatch("button", `(?i)load more`)
	if err != nil {
		wrapped := ErrInteraction{Err: err}
		s.Metrics.IncError(errorTypeLabel(wrapped))
		slog.Warn("load-more click failed", slog.Any("error", wrapped))
		return false
	}
	if !clicked {
		clicked, err = s.page.Click(`button[aria-label='Next page']`)
		if err != nil {
			wrapped := ErrInteraction{Err: err}
			s.Metrics.IncError(errorTypeLabel(wrapped))
			slog.Warn("next-page click failed", slog.Any("error", wrapped))
			return false
		}
	}
	if !clicked {
		return false
	}

	slog.Info("pagination control clicked")
	_ = s.pause(ctx, s.cfg.PostClickDelayMin, s.cfg.PostClickDelayMax)
	return true
}

// checkpoint writes an intermediate snapshot under a count-stamped name. A
// failed write loses that checkpoint only; the run continues.
func (s *Scraper) checkpoint(set *models.ActorSet, result *models.ScrapeResult) {
	actors := set.All()
	path := pipeline.TempPath(s.cfg.CheckpointPrefix, len(actors))
	if err := s.store.WriteAll(path, actors); err != nil {
		slog.Error("checkpoint write failed",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return
	}
	result.Checkpoints++
	s.Metrics.IncCheckpoint()
	slog.Info("checkpoint saved", slog.String("path", path), slog.Int("actors", len(actors)))
}

// pause sleeps for a duration drawn uniformly from [min, max], returning
// early with the context error on cancellation.
func (s *Scraper) pause(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d = min + time.Duration(s.rng.Int63n(int64(max-min)))
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
