// Package swoosh builds the SwooshUI menu bar: a logo, six menu labels with
// single selection, and a clock that ticks once per second.
package swoosh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"swooshui/internal/dom"
)

const (
	ClassBar            = "swooshui-bar"
	ClassLogo           = "swooshui-logo"
	ClassMenu           = "swooshui-menu"
	ClassMenuItem       = "swooshui-menu-item"
	ClassMenuItemActive = ClassMenuItem + " active"
	ClassClock          = "swooshui-clock"

	LogoGlyph        = "🌀"
	ClockPlaceholder = "--:--:--"
	TickInterval     = time.Second
)

var (
	// ErrEnvironment means the page lacks something the bar needs to mount:
	// a head, a body, or a working document.
	ErrEnvironment = errors.New("environment unavailable")
	ErrNoSuchItem  = errors.New("no such menu item")
)

var labels = [...]string{"File", "Edit", "View", "Go", "Window", "Help"}

func Labels() []string { return slices.Clone(labels[:]) }

type Option func(*Bar)

// WithClock sets the time source for the clock cell.
func WithClock(c clockwork.Clock) Option {
	return func(b *Bar) { b.clock = c }
}

// WithClickHook registers fn to receive the label of every clicked item.
func WithClickHook(fn func(label string)) Option {
	return func(b *Bar) { b.onClick = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Bar) { b.log = l }
}

func WithTickInterval(d time.Duration) Option {
	return func(b *Bar) { b.interval = d }
}

type Bar struct {
	root     dom.Element
	items    []dom.Element
	clockEl  dom.Element
	clock    clockwork.Clock
	interval time.Duration
	onClick  func(label string)
	log      *slog.Logger

	mu     sync.Mutex
	active int

	stop context.CancelFunc
	done chan struct{}
}

// Mount injects the stylesheet, builds the bar and appends it to the body.
// The clock runs until ctx is done or Stop is called.
func Mount(ctx context.Context, doc dom.Document, opts ...Option) (*Bar, error) {
	if err := InjectStyles(doc); err != nil {
		return nil, err
	}
	body, err := doc.Body()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnvironment, err)
	}
	b, err := Build(ctx, doc, opts...)
	if err != nil {
		return nil, err
	}
	if err := body.AppendChild(b.root); err != nil {
		b.Stop()
		return nil, fmt.Errorf("%w: mount bar: %w", ErrEnvironment, err)
	}
	b.log.Debug("bar mounted", "items", len(b.items))
	return b, nil
}

// Build constructs the bar subtree without attaching it to the page.
func Build(ctx context.Context, doc dom.Document, opts ...Option) (*Bar, error) {
	b := &Bar{
		clock:    clockwork.NewRealClock(),
		interval: TickInterval,
		log:      slog.Default(),
		active:   -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.interval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", b.interval)
	}

	var err error
	if b.root, err = create(doc, "nav", ClassBar, ""); err != nil {
		return nil, err
	}
	logo, err := create(doc, "div", ClassLogo, LogoGlyph)
	if err != nil {
		return nil, err
	}
	menu, err := create(doc, "div", ClassMenu, "")
	if err != nil {
		return nil, err
	}
	for i, label := range labels {
		item, err := create(doc, "div", ClassMenuItem, label)
		if err != nil {
			return nil, err
		}
		item.OnClick(func() { b.activate(i) })
		if err := menu.AppendChild(item); err != nil {
			return nil, fmt.Errorf("%w: append %s: %w", ErrEnvironment, label, err)
		}
		b.items = append(b.items, item)
	}
	if b.clockEl, err = create(doc, "div", ClassClock, ClockPlaceholder); err != nil {
		return nil, err
	}
	for _, el := range []dom.Element{logo, menu, b.clockEl} {
		if err := b.root.AppendChild(el); err != nil {
			return nil, fmt.Errorf("%w: append %s: %w", ErrEnvironment, el.ClassName(), err)
		}
	}

	ctx, b.stop = context.WithCancel(ctx)
	b.done = make(chan struct{})
	go b.run(ctx, b.clock.NewTicker(b.interval))
	return b, nil
}

func (b *Bar) Element() dom.Element { return b.root }

// Click selects the i-th menu item as if the user had clicked it.
func (b *Bar) Click(i int) error {
	if i < 0 || i >= len(b.items) {
		return fmt.Errorf("%w: %d", ErrNoSuchItem, i)
	}
	b.activate(i)
	return nil
}

// Active returns the label of the selected item; ok is false until the first click.
func (b *Bar) Active() (label string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active < 0 {
		return "", false
	}
	return labels[b.active], true
}

func (b *Bar) ClockText() string { return b.clockEl.TextContent() }

// Tick updates the clock cell immediately.
func (b *Bar) Tick() {
	b.clockEl.SetTextContent(FormatClock(b.clock.Now().Local()))
}

// Stop halts the clock. The rest of the bar stays usable.
func (b *Bar) Stop() {
	b.stop()
	<-b.done
}

// activate recomputes every item's class from scratch so the result only
// depends on k.
func (b *Bar) activate(k int) {
	b.mu.Lock()
	for _, item := range b.items {
		item.SetClassName(ClassMenuItem)
	}
	b.items[k].SetClassName(ClassMenuItemActive)
	b.active = k
	b.mu.Unlock()

	b.log.Debug("menu item selected", "label", labels[k], "index", k)
	if b.onClick != nil {
		b.onClick(labels[k])
	}
}

func (b *Bar) run(ctx context.Context, t clockwork.Ticker) {
	defer close(b.done)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.Chan():
			b.Tick()
		}
	}
}

func FormatClock(t time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

func create(doc dom.Document, tag, class, text string) (dom.Element, error) {
	el, err := doc.CreateElement(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnvironment, err)
	}
	if class != "" {
		el.SetClassName(class)
	}
	if text != "" {
		el.SetTextContent(text)
	}
	return el, nil
}
