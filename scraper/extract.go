package scraper

import (
	"log/slog"

	"github.com/aluiziolira/go-scrape-actors/browser"
	"github.com/aluiziolira/go-scrape-actors/models"
)

// textLookup resolves one field from a card handle. An empty string means the
// strategy found nothing and the next one in the list should be tried.
type textLookup func(browser.Card) (string, error)

// pairLookup resolves the users/rating container texts from a card handle.
type pairLookup func(browser.Card) ([]string, error)

func bySelector(selector string) textLookup {
	return func(card browser.Card) (string, error) {
		return card.Text(selector)
	}
}

func allBySelector(selector string) pairLookup {
	return func(card browser.Card) ([]string, error) {
		return card.Texts(selector)
	}
}

func lookups(selectors ...string) []textLookup {
	out := make([]textLookup, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, bySelector(sel))
	}
	return out
}

func pairLookups(selectors ...string) []pairLookup {
	out := make([]pairLookup, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, allBySelector(sel))
	}
	return out
}

// notFound is the sentinel stored when every lookup strategy for a field
// came up empty.
func notFound(field string) string {
	return field + " not found"
}

// extractor pulls actor records out of rendered cards. Each field carries an
// ordered strategy list, most specific selector first; the listing markup
// churns often enough that the class-based selectors cannot be trusted alone.
type extractor struct {
	title       []textLookup
	slug        []textLookup
	description []textLookup
	author      []textLookup
	usersRating []pairLookup
	metrics     *Metrics
}

func newExtractor(metrics *Metrics) *extractor {
	return &extractor{
		title: lookups(
			".ActorStoreItem-title h3",
			"h3",
			`[class*="title"] h3`,
		),
		slug: lookups(
			".ActorStoreItem-slug",
			`p[class*="slug"]`,
			"p:nth-child(2)",
		),
		description: lookups(
			".ActorStoreItem-desc",
			`p[class*="desc"]`,
			"p:nth-child(3)",
		),
		author: lookups(
			".ActorStoreItem-user-fullname",
			`p[class*="fullname"]`,
			`div[class*="author"] p`,
		),
		usersRating: pairLookups(
			".ActorStoreItem-item p",
			`div[class*="item"] p`,
			`div:has(> svg) p`,
		),
		metrics: metrics,
	}
}

// extractAll runs over every rendered card, skipping cards whose identifier
// is already captured. It returns the number of records added. Per-card
// failures are logged and never abort the pass.
func (e *extractor) extractAll(cards []browser.Card, set *models.ActorSet) int {
	added := 0
	for i, card := range cards {
		href, err := card.Href()
		if err != nil {
			slog.Warn("card link unreadable, skipping card",
				slog.Int("index", i),
				slog.Any("error", err),
			)
			e.metrics.IncExtractionError("url")
			continue
		}
		if href == "" {
			// Without a link target the card cannot be deduplicated.
			e.metrics.IncExtractionError("url")
			continue
		}
		if set.Has(href) {
			continue
		}

		actor := e.extract(card, href)
		if set.Add(actor) {
			added++
			e.metrics.IncActors()
			if set.Len()%10 == 0 {
				slog.Info("extraction progress", slog.Int("actors", set.Len()))
			}
		}
	}
	return added
}

func (e *extractor) extract(card browser.Card, href string) *models.Actor {
	users, rating := e.usersAndRating(card)
	return &models.Actor{
		URL:         href,
		Title:       e.field("title", e.title, card),
		Slug:        e.field("slug", e.slug, card),
		Description: e.field("description", e.description, card),
		Author:      e.field("author", e.author, card),
		Users:       users,
		Rating:      rating,
	}
}

// field tries each strategy in order and takes the first non-empty text. A
// strategy error counts as a miss; the sentinel is stored only when the whole
// list is exhausted.
func (e *extractor) field(name string, strategies []textLookup, card browser.Card) string {
	for _, lookup := range strategies {
		text, err := lookup(card)
		if err != nil {
			slog.Debug("field lookup failed",
				slog.String("field", name),
				slog.Any("error", err),
			)
			e.metrics.IncExtractionError(name)
			continue
		}
		if text != "" {
			return text
		}
	}
	return notFound(name)
}

// usersAndRating extracts both values from a shared container strategy list.
// The first strategy yielding at least one match supplies users from the
// first match and rating from the second when present.
func (e *extractor) usersAndRating(card browser.Card) (string, string) {
	for _, lookup := range e.usersRating {
		texts, err := lookup(card)
		if err != nil {
			slog.Debug("users/rating lookup failed", slog.Any("error", err))
			e.metrics.IncExtractionError("users")
			continue
		}
		if len(texts) == 0 {
			continue
		}
		rating := notFound("rating")
		if len(texts) >= 2 {
			rating = texts[1]
		}
		return texts[0], rating
	}
	return notFound("users"), notFound("rating")
}
