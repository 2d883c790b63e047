package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/aluiziolira/go-scrape-actors/browser"
	"github.com/aluiziolira/go-scrape-actors/config"
	"github.com/aluiziolira/go-scrape-actors/models"
)

// fakeCard serves canned texts keyed by selector.
type fakeCard struct {
	href    string
	hrefErr error
	fields  map[string]string
	groups  map[string][]string
	textErr map[string]error
}

func (c *fakeCard) Href() (string, error) {
	return c.href, c.hrefErr
}

func (c *fakeCard) Text(selector string) (string, error) {
	if err := c.textErr[selector]; err != nil {
		return "", err
	}
	return c.fields[selector], nil
}

func (c *fakeCard) Texts(selector string) ([]string, error) {
	if err := c.textErr[selector]; err != nil {
		return nil, err
	}
	return c.groups[selector], nil
}

// storeCard builds a fully populated card with a unique link target.
func storeCard(i int) *fakeCard {
	return &fakeCard{
		href: fmt.Sprintf("/store/user/actor-%d", i),
		fields: map[string]string{
			".ActorStoreItem-title h3":      fmt.Sprintf("Actor %d", i),
			".ActorStoreItem-slug":          fmt.Sprintf("user/actor-%d", i),
			".ActorStoreItem-desc":          "Scrapes things",
			".ActorStoreItem-user-fullname": "User",
		},
		groups: map[string][]string{
			".ActorStoreItem-item p": {"1.2k", "4.5"},
		},
	}
}

// fakePage drives the loop with a scripted card-count schedule: the nth
// Cards call renders counts[n-1] cards, and the last entry repeats forever.
type fakePage struct {
	counts  []int
	calls   int
	onCards func(call int)

	height    float64
	scrollTop float64
	bodyText  string
	bodyErr   error

	waitErr     error
	cardsErr    error
	scrollByErr error

	moves        int
	clickCalls   int
	clickResults []bool // consumed per ClickMatch call; false once exhausted
	clickErr     error
}

func (p *fakePage) WaitVisible(string, time.Duration) error {
	return p.waitErr
}

func (p *fakePage) ScrollTop() (float64, error) {
	return p.scrollTop, nil
}

func (p *fakePage) DocumentHeight() (float64, error) {
	return p.height, nil
}

func (p *fakePage) ScrollTo(y float64) error {
	p.scrollTop = y
	return nil
}

func (p *fakePage) ScrollBy(dy float64) error {
	if p.scrollByErr != nil {
		return p.scrollByErr
	}
	p.scrollTop += dy
	return nil
}

func (p *fakePage) BodyText() (string, error) {
	return p.bodyText, p.bodyErr
}

func (p *fakePage) Cards(string) ([]browser.Card, error) {
	if p.cardsErr != nil {
		return nil, p.cardsErr
	}
	p.calls++
	if p.onCards != nil {
		p.onCards(p.calls)
	}
	idx := p.calls - 1
	if idx >= len(p.counts) {
		idx = len(p.counts) - 1
	}
	n := p.counts[idx]
	cards := make([]browser.Card, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, storeCard(i))
	}
	return cards, nil
}

func (p *fakePage) MoveMouse(x, y float64) error {
	p.moves++
	return nil
}

func (p *fakePage) Click(string) (bool, error) {
	return false, nil
}

func (p *fakePage) ClickMatch(string, string) (bool, error) {
	if p.clickErr != nil {
		return false, p.clickErr
	}
	p.clickCalls++
	if len(p.clickResults) == 0 {
		return false, nil
	}
	result := p.clickResults[0]
	p.clickResults = p.clickResults[1:]
	return result, nil
}

type storeWrite struct {
	path  string
	count int
}

type fakeStore struct {
	writes []storeWrite
	err    error
}

func (s *fakeStore) WriteAll(path string, actors []*models.Actor) error {
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, storeWrite{path: path, count: len(actors)})
	return nil
}

// testConfig zeroes every delay so loop tests run instantly.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.MaxAttempts = 40
	cfg.StallThreshold = 6
	cfg.RecoveryThreshold = 3
	cfg.LongPauseEvery = 5
	cfg.CheckpointEvery = 10

	cfg.StepDelayMin, cfg.StepDelayMax = 0, 0
	cfg.SettleDelayMin, cfg.SettleDelayMax = 0, 0
	cfg.IterDelayMin, cfg.IterDelayMax = 0, 0
	cfg.RecoveryDelayMin, cfg.RecoveryDelayMax = 0, 0
	cfg.PostClickDelayMin, cfg.PostClickDelayMax = 0, 0
	cfg.LongPauseMin, cfg.LongPauseMax = 0, 0
	return cfg
}

// growing returns a schedule rendering one new card per iteration up to max.
func growing(max int) []int {
	counts := make([]int, max)
	for i := range counts {
		counts[i] = i + 1
	}
	return counts
}

func TestLoopStopsAtAttemptCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 25

	page := &fakePage{counts: growing(1000), height: 1e6, bodyText: "25 actors"}
	store := &fakeStore{}
	s := NewScraper(cfg, page, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reason != models.ReasonMaxAttempts {
		t.Fatalf("reason=%s, want %s", result.Reason, models.ReasonMaxAttempts)
	}
	if result.Attempts != cfg.MaxAttempts {
		t.Fatalf("attempts=%d, want exactly %d", result.Attempts, cfg.MaxAttempts)
	}
	if len(result.Actors) != cfg.MaxAttempts {
		t.Fatalf("captured=%d, want one per iteration = %d", len(result.Actors), cfg.MaxAttempts)
	}

	last := store.writes[len(store.writes)-1]
	if last.path != "actors_final_25.csv" || last.count != 25 {
		t.Fatalf("final write = %+v, want actors_final_25.csv with 25 records", last)
	}
}

func TestLoopTerminatesOnRepeatedStalls(t *testing.T) {
	cfg := testConfig()
	const stuckAt = 4

	page := &fakePage{counts: growing(stuckAt), height: 1e6}
	store := &fakeStore{}
	s := NewScraper(cfg, page, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reason != models.ReasonNoNewItems {
		t.Fatalf("reason=%s, want %s", result.Reason, models.ReasonNoNewItems)
	}
	// The loop must give up within the stall budget of the last new card,
	// not run on to the attempt ceiling.
	if max := stuckAt + cfg.StallThreshold + 1; result.Attempts > max {
		t.Fatalf("attempts=%d, want at most %d", result.Attempts, max)
	}
	if result.Attempts >= cfg.MaxAttempts {
		t.Fatalf("loop ran to the attempt ceiling")
	}
	if len(result.Actors) != stuckAt {
		t.Fatalf("captured=%d, want %d", len(result.Actors), stuckAt)
	}
	if result.Recoveries == 0 || page.moves == 0 {
		t.Fatalf("recovery interactions should have been attempted before giving up")
	}
}

func TestRecoveryClickResetsStallBudget(t *testing.T) {
	cfg := testConfig()

	// Growth pauses at 5 cards; stalls build at calls 6-8 and the recovery
	// at streak 3 clicks a control, after which growth resumes up to 12.
	counts := []int{1, 2, 3, 4, 5, 5, 5, 5, 6, 7, 8, 9, 10, 11, 12}
	// Near the bottom on every iteration so the click is attempted.
	page := &fakePage{counts: counts, height: 1500, clickResults: []bool{true}}
	store := &fakeStore{}
	s := NewScraper(cfg, page, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Actors) != 12 {
		t.Fatalf("captured=%d, want 12 after the click revived the loader", len(result.Actors))
	}
	if result.Reason != models.ReasonNoNewItems {
		t.Fatalf("reason=%s, want %s once the loader is truly exhausted", result.Reason, models.ReasonNoNewItems)
	}
	if page.clickCalls < 2 {
		t.Fatalf("clickCalls=%d, want the second stall phase to try clicking again", page.clickCalls)
	}
}

func TestLoopDoesNotClickAwayFromBottom(t *testing.T) {
	cfg := testConfig()

	// Huge document: the viewport is never near the bottom, so recovery
	// must stop at pointer motion and forced scroll.
	page := &fakePage{counts: []int{3}, height: 1e6, clickResults: []bool{true}}
	store := &fakeStore{}
	s := NewScraper(cfg, page, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if page.clickCalls != 0 {
		t.Fatalf("clickCalls=%d, want 0 away from the document bottom", page.clickCalls)
	}
	if page.moves == 0 {
		t.Fatalf("pointer motion should still be attempted")
	}
	if result.Reason != models.ReasonNoNewItems {
		t.Fatalf("reason=%s, want %s", result.Reason, models.ReasonNoNewItems)
	}
}

func TestLoopExtractionIsIdempotentAcrossIterations(t *testing.T) {
	cfg := testConfig()

	// The same 5 cards every iteration: repeated extraction passes must
	// not create duplicate records.
	page := &fakePage{counts: []int{5}, height: 1e6}
	store := &fakeStore{}
	s := NewScraper(cfg, page, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Actors) != 5 {
		t.Fatalf("captured=%d, want 5", len(result.Actors))
	}
	if result.Attempts < 2 {
		t.Fatalf("attempts=%d, want several extraction passes", result.Attempts)
	}
}

func TestCheckpointIntervalIndependentOfLongPause(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 20
	cfg.StallThreshold = 25
	cfg.LongPauseEvery = 7
	cfg.CheckpointEvery = 10

	page := &fakePage{counts: growing(1000), height: 1e6}
	store := &fakeStore{}
	s := NewScraper(cfg, page, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// Iterations 10 and 20, even though neither lands on a long pause.
	if result.Checkpoints != 2 {
		t.Fatalf("checkpoints=%d, want 2 with a checkpoint interval that is not a multiple of the pause interval", result.Checkpoints)
	}
}

func TestRecoveryScrollFailureCountsAsInteractionError(t *testing.T) {
	cfg := testConfig()

	page := &fakePage{counts: []int{3}, height: 1e6, scrollByErr: errors.New("detached frame")}
	store := &fakeStore{}
	s := NewScraper(cfg, page, store)

	result, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Reason != models.ReasonNoNewItems {
		t.Fatalf("reason=%s, want %s", result.Reason, models.ReasonNoNewItems)
	}
	got := testutil.ToFloat64(s.Metrics.ErrorsTotal.WithLabelValues("interaction"))
	if got == 0 {
		t.Fatalf("forced-scroll failures should be counted as interaction errors")
	}
}

func TestLoopWritesCountStampedCheckpoints(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 30
	cfg.StallThreshold = 25 // keep the growing schedule from terminating early

	page := &fakePage{counts: growing(1000), height: 1e6}
	store := &fakeStore{}
	s := NewScraper(cfg, page, store)

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	var temps []storeWrite
	for _, w := range store.writes {
		if w.path != "actors_final_30.csv" {
			temps = append(temps, w)
		}
	}
	if len(temps) != 3 {
		t.Fatalf("temp checkpoints=%d, want 3 (iterations 10, 20, 30)", len(temps))
	}
	seen := map[string]bool{}
	for _, w := range temps {
		if seen[w.path] {
			t.Fatalf("checkpoint path %q written twice", w.path)
		}
		seen[w.path] = true
		want := fmt.Sprintf("actors_temp_%d.csv", w.count)
		if w.path != want {
			t.Fatalf("checkpoint path %q does not embed its record count (want %q)", w.path, want)
		}
	}
}
