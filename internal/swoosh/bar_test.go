package swoosh

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swooshui/internal/dom"
)

var mountedAt = time.Date(2026, 10, 18, 9, 3, 6, 0, time.Local)

func setupTestBar(t *testing.T, opts ...Option) (*Bar, *dom.HTMLDocument, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClockAt(mountedAt)
	doc := dom.NewHTMLDocument()

	base := []Option{WithClock(fc), WithLogger(slog.New(slog.DiscardHandler))}
	b, err := Mount(context.Background(), doc, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(b.Stop)
	return b, doc, fc
}

func activeLabels(doc *dom.HTMLDocument) []string {
	var out []string
	for _, el := range doc.FindByClass("active") {
		out = append(out, el.TextContent())
	}
	return out
}

// Структура панели
func TestMountBuildsTree(t *testing.T) {
	b, doc, _ := setupTestBar(t)

	body, err := doc.Body()
	require.NoError(t, err)
	require.Len(t, body.Children(), 1)
	assert.Equal(t, "NAV", body.Children()[0].TagName())

	parts := b.Element().Children()
	require.Len(t, parts, 3)
	assert.Equal(t, ClassLogo, parts[0].ClassName())
	assert.Equal(t, LogoGlyph, parts[0].TextContent())
	assert.Equal(t, ClassMenu, parts[1].ClassName())
	assert.Equal(t, ClassClock, parts[2].ClassName())
	assert.Equal(t, ClockPlaceholder, parts[2].TextContent())

	var got []string
	for _, item := range parts[1].Children() {
		assert.Equal(t, ClassMenuItem, item.ClassName())
		got = append(got, item.TextContent())
	}
	assert.Equal(t, []string{"File", "Edit", "View", "Go", "Window", "Help"}, got)

	_, ok := b.Active()
	assert.False(t, ok)
	assert.Empty(t, activeLabels(doc))
}

func TestMountClassCounts(t *testing.T) {
	_, doc, _ := setupTestBar(t)

	tests := []struct {
		class string
		want  int
	}{
		{ClassBar, 1},
		{ClassLogo, 1},
		{ClassMenu, 1},
		{ClassMenuItem, 6},
		{ClassClock, 1},
	}
	for _, tt := range tests {
		assert.Len(t, doc.FindByClass(tt.class), tt.want, tt.class)
	}

	head, err := doc.Head()
	require.NoError(t, err)
	var styles int
	for _, el := range head.Children() {
		if el.TagName() == "STYLE" {
			styles++
		}
	}
	assert.Equal(t, 1, styles)
}

// Выбор каждого пункта меню
func TestClickSelectsExactlyOneItem(t *testing.T) {
	b, doc, _ := setupTestBar(t)
	items := doc.FindByClass(ClassMenuItem)
	require.Len(t, items, 6)

	for i, label := range Labels() {
		t.Run(label, func(t *testing.T) {
			require.NoError(t, doc.Click(items[i]))

			assert.Equal(t, []string{label}, activeLabels(doc))
			assert.Equal(t, ClassMenuItemActive, items[i].ClassName())
			got, ok := b.Active()
			assert.True(t, ok)
			assert.Equal(t, label, got)
		})
	}
}

func TestClickSameItemTwice(t *testing.T) {
	b, doc, _ := setupTestBar(t)

	require.NoError(t, b.Click(2))
	require.NoError(t, b.Click(2))

	assert.Equal(t, []string{"View"}, activeLabels(doc))
}

func TestClickSequencesKeepSingleSelection(t *testing.T) {
	b, doc, _ := setupTestBar(t)
	rng := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		k := rng.IntN(len(labels))
		require.NoError(t, b.Click(k))
		require.Equal(t, []string{labels[k]}, activeLabels(doc))
	}
}

// Состояние пересчитывается с нуля
func TestClickRepairsCorruptedClasses(t *testing.T) {
	b, doc, _ := setupTestBar(t)
	for _, item := range doc.FindByClass(ClassMenuItem) {
		item.SetClassName(ClassMenuItemActive)
	}

	require.NoError(t, b.Click(5))
	assert.Equal(t, []string{"Help"}, activeLabels(doc))
}

func TestClickOutOfRange(t *testing.T) {
	b, doc, _ := setupTestBar(t)

	for _, i := range []int{-1, 6, 100} {
		assert.ErrorIs(t, b.Click(i), ErrNoSuchItem)
	}
	assert.Empty(t, activeLabels(doc))
}

func TestClickHook(t *testing.T) {
	var got []string
	_, doc, _ := setupTestBar(t, WithClickHook(func(label string) { got = append(got, label) }))
	items := doc.FindByClass(ClassMenuItem)

	require.NoError(t, doc.Click(items[0]))
	require.NoError(t, doc.Click(items[4]))
	require.NoError(t, doc.Click(items[4]))

	assert.Equal(t, []string{"File", "Window", "Window"}, got)
}

// Часы
func TestClockTicks(t *testing.T) {
	b, _, fc := setupTestBar(t)
	assert.Equal(t, ClockPlaceholder, b.ClockText())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	fc.Advance(time.Second)
	assert.Eventually(t, func() bool { return b.ClockText() == "09:03:07" }, 2*time.Second, 5*time.Millisecond)

	fc.Advance(time.Second)
	assert.Eventually(t, func() bool { return b.ClockText() == "09:03:08" }, 2*time.Second, 5*time.Millisecond)

	assert.Regexp(t, regexp.MustCompile(`^\d\d:\d\d:\d\d$`), b.ClockText())
}

func TestClockReadsNowOnEveryTick(t *testing.T) {
	b, _, fc := setupTestBar(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	// one tick after a jump shows the jumped-to time, not a counter
	fc.Advance(90*time.Minute + time.Second)
	assert.Eventually(t, func() bool { return b.ClockText() == "10:33:07" }, 2*time.Second, 5*time.Millisecond)
}

func TestStopHaltsClock(t *testing.T) {
	b, doc, fc := setupTestBar(t)
	b.Stop()

	fc.Advance(5 * time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, ClockPlaceholder, b.ClockText())

	require.NoError(t, b.Click(1))
	assert.Equal(t, []string{"Edit"}, activeLabels(doc))
}

func TestContextCancelHaltsClock(t *testing.T) {
	fc := clockwork.NewFakeClockAt(mountedAt)
	ctx, cancel := context.WithCancel(context.Background())
	b, err := Build(ctx, dom.NewHTMLDocument(), WithClock(fc))
	require.NoError(t, err)

	cancel()
	b.Stop()

	fc.Advance(time.Second)
	assert.Equal(t, ClockPlaceholder, b.ClockText())
}

func TestTickInterval(t *testing.T) {
	_, err := Build(context.Background(), dom.NewHTMLDocument(), WithTickInterval(0))
	assert.Error(t, err)

	fc := clockwork.NewFakeClockAt(mountedAt)
	b, err := Build(context.Background(), dom.NewHTMLDocument(), WithClock(fc), WithTickInterval(250*time.Millisecond))
	require.NoError(t, err)
	defer b.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(250 * time.Millisecond)
	assert.Eventually(t, func() bool { return b.ClockText() == "09:03:06" }, 2*time.Second, 5*time.Millisecond)
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{name: "midnight", in: time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local), want: "00:00:00"},
		{name: "padded", in: time.Date(2026, 1, 1, 9, 3, 7, 0, time.Local), want: "09:03:07"},
		{name: "last_second", in: time.Date(2026, 1, 1, 23, 59, 59, 999, time.Local), want: "23:59:59"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatClock(tt.in))
		})
	}
}

type brokenDocument struct {
	*dom.HTMLDocument
	failAfter int
	noBody    bool
	created   int
}

func (d *brokenDocument) CreateElement(tag string) (dom.Element, error) {
	d.created++
	if d.failAfter > 0 && d.created > d.failAfter {
		return nil, errors.New("out of nodes")
	}
	return d.HTMLDocument.CreateElement(tag)
}

func (d *brokenDocument) Body() (dom.Element, error) {
	if d.noBody {
		return nil, dom.ErrNotFound
	}
	return d.HTMLDocument.Body()
}

// Ошибки окружения
func TestMountEnvironmentUnavailable(t *testing.T) {
	tests := []struct {
		name string
		doc  dom.Document
	}{
		{name: "empty_document", doc: new(dom.HTMLDocument)},
		{name: "no_body", doc: &brokenDocument{HTMLDocument: dom.NewHTMLDocument(), noBody: true}},
		{name: "create_fails_in_menu", doc: &brokenDocument{HTMLDocument: dom.NewHTMLDocument(), failAfter: 5}},
		{name: "create_fails_at_clock", doc: &brokenDocument{HTMLDocument: dom.NewHTMLDocument(), failAfter: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Mount(context.Background(), tt.doc, WithClock(clockwork.NewFakeClockAt(mountedAt)))
			assert.ErrorIs(t, err, ErrEnvironment)
			assert.Nil(t, b)
		})
	}
}

func TestMountLeavesNoPartialBar(t *testing.T) {
	doc := &brokenDocument{HTMLDocument: dom.NewHTMLDocument(), failAfter: 6}

	_, err := Mount(context.Background(), doc)
	require.ErrorIs(t, err, ErrEnvironment)

	body, err := doc.Body()
	require.NoError(t, err)
	assert.Empty(t, body.Children())
}
