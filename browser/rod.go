package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type rodSession struct {
	browser *rod.Browser
	opts    Options
}

// NewSession launches a Chromium instance and connects to it.
func NewSession(opts Options) (Session, error) {
	url, err := launcher.New().
		Headless(opts.Headless).
		Leakless(true).
		Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &rodSession{browser: b, opts: opts}, nil
}

func (s *rodSession) Open(ctx context.Context, url string, timeout time.Duration) (Page, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	page = page.Context(ctx)

	// Inject the stealth script before any document runs, so the lazy
	// loader sees an ordinary browser.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		return nil, fmt.Errorf("install stealth script: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             s.opts.Width,
		Height:            s.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}
	if s.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: s.opts.UserAgent,
		}); err != nil {
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	if err := page.Timeout(timeout).Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}

	return &rodPage{page: page}, nil
}

func (s *rodSession) Close() error {
	return s.browser.Close()
}

type rodPage struct {
	page *rod.Page
}

func (p *rodPage) WaitVisible(selector string, timeout time.Duration) error {
	el, err := p.page.Timeout(timeout).Element(selector)
	if err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("wait for %q visible: %w", selector, err)
	}
	return nil
}

func (p *rodPage) ScrollTop() (float64, error) {
	obj, err := p.page.Eval(`() => window.scrollY`)
	if err != nil {
		return 0, fmt.Errorf("read scroll offset: %w", err)
	}
	return obj.Value.Num(), nil
}

func (p *rodPage) DocumentHeight() (float64, error) {
	obj, err := p.page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, fmt.Errorf("read document height: %w", err)
	}
	return obj.Value.Num(), nil
}

func (p *rodPage) ScrollTo(y float64) error {
	_, err := p.page.Eval(`(y) => window.scrollTo(0, y)`, y)
	if err != nil {
		return fmt.Errorf("scroll to %0.f: %w", y, err)
	}
	return nil
}

func (p *rodPage) ScrollBy(dy float64) error {
	_, err := p.page.Eval(`(dy) => window.scrollBy(0, dy)`, dy)
	if err != nil {
		return fmt.Errorf("scroll by %0.f: %w", dy, err)
	}
	return nil
}

func (p *rodPage) BodyText() (string, error) {
	obj, err := p.page.Eval(`() => document.body.innerText`)
	if err != nil {
		return "", fmt.Errorf("read body text: %w", err)
	}
	return obj.Value.Str(), nil
}

func (p *rodPage) Cards(selector string) ([]Card, error) {
	elements, err := p.page.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	cards := make([]Card, 0, len(elements))
	for _, el := range elements {
		cards = append(cards, &rodCard{el: el})
	}
	return cards, nil
}

func (p *rodPage) MoveMouse(x, y float64) error {
	if err := p.page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("move mouse: %w", err)
	}
	return nil
}

func (p *rodPage) Click(selector string) (bool, error) {
	has, el, err := p.page.Has(selector)
	if err != nil {
		return false, fmt.Errorf("find %q: %w", selector, err)
	}
	if !has {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("click %q: %w", selector, err)
	}
	return true, nil
}

func (p *rodPage) ClickMatch(selector, pattern string) (bool, error) {
	has, el, err := p.page.HasR(selector, pattern)
	if err != nil {
		return false, fmt.Errorf("find %q matching %q: %w", selector, pattern, err)
	}
	if !has {
		return false, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("click %q matching %q: %w", selector, pattern, err)
	}
	return true, nil
}

type rodCard struct {
	el *rod.Element
}

func (c *rodCard) Href() (string, error) {
	attr, err := c.el.Attribute("href")
	if err != nil {
		return "", fmt.Errorf("read href: %w", err)
	}
	if attr == nil {
		return "", nil
	}
	return *attr, nil
}

func (c *rodCard) Text(selector string) (string, error) {
	has, el, err := c.el.Has(selector)
	if err != nil || !has {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("read text of %q: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

func (c *rodCard) Texts(selector string) ([]string, error) {
	elements, err := c.el.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	texts := make([]string, 0, len(elements))
	for _, el := range elements {
		text, err := el.Text()
		if err != nil {
			return nil, fmt.Errorf("read text of %q: %w", selector, err)
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return texts, nil
}
