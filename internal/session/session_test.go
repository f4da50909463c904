package session

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-text-mcp/internal/geometry"
	"github.com/ironsheep/image-text-mcp/internal/history"
	"github.com/ironsheep/image-text-mcp/internal/ocr"
	"github.com/ironsheep/image-text-mcp/internal/orientation"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

type fakeEngine struct {
	recognize func(ctx context.Context, req ocr.Request) ([]textgroup.Fragment, error)
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, req ocr.Request) ([]textgroup.Fragment, error) {
	return f.recognize(ctx, req)
}

func returning(fragments ...textgroup.Fragment) *fakeEngine {
	return &fakeEngine{recognize: func(context.Context, ocr.Request) ([]textgroup.Fragment, error) {
		return fragments, nil
	}}
}

func frag(text string, x, y, w, h float64) textgroup.Fragment {
	return textgroup.NewFragment(text, geometry.Rect{X: x, Y: y, Width: w, Height: h})
}

func newSession(t *testing.T, engine ocr.Engine, opts ...Option) (*Session, *history.Store) {
	t.Helper()
	store := history.Open("", history.DefaultLimit)
	s, err := New(engine, store, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, store
}

func blank(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestScan_PublishesGroups(t *testing.T) {
	s, _ := newSession(t, returning(
		frag("World", 0.25, 0.8, 0.1, 0.05),
		frag("Hello", 0.1, 0.8, 0.1, 0.05),
		frag("Footer", 0.1, 0.1, 0.2, 0.05),
	))

	snap, err := s.Scan(context.Background(), blank(200, 100), orientation.Up, nil)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, geometry.Size{Width: 200, Height: 100}, snap.ImageSize)
	assert.False(t, snap.NoText)
	require.Len(t, snap.Groups, 2)
	assert.Equal(t, "Hello World", snap.Groups[0].CombinedText())
	assert.Equal(t, "Footer", snap.Groups[1].CombinedText())
	assert.Equal(t, "Hello World\nFooter", snap.CombinedText())
	assert.Same(t, snap, s.Current())
}

func TestScan_UsesConfiguredLanguagesAndLevel(t *testing.T) {
	var got ocr.Request
	engine := &fakeEngine{recognize: func(_ context.Context, req ocr.Request) ([]textgroup.Fragment, error) {
		got = req
		return nil, nil
	}}
	s, _ := newSession(t, engine, WithLanguages("deu"), WithLevel(ocr.LevelLine))

	_, err := s.Scan(context.Background(), blank(10, 10), orientation.Up, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"deu"}, got.Languages)
	assert.Equal(t, ocr.LevelLine, got.Level)

	_, err = s.Scan(context.Background(), blank(10, 10), orientation.Up, []string{"fra"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fra"}, got.Languages)
}

func TestScan_FailureYieldsNoText(t *testing.T) {
	engine := &fakeEngine{recognize: func(context.Context, ocr.Request) ([]textgroup.Fragment, error) {
		return []textgroup.Fragment{frag("partial", 0, 0, 0.1, 0.1)}, errors.New("engine broke")
	}}
	s, _ := newSession(t, engine)

	snap, err := s.Scan(context.Background(), blank(10, 10), orientation.Up, nil)
	require.NoError(t, err)
	assert.True(t, snap.NoText)
	assert.Contains(t, snap.Error, "engine broke")
	assert.Empty(t, snap.Fragments)
	assert.Empty(t, snap.Groups)
	assert.Same(t, snap, s.Current())
}

func TestScan_OrientationSwapsImageSize(t *testing.T) {
	s, _ := newSession(t, returning())

	snap, err := s.Scan(context.Background(), blank(40, 20), orientation.Right, nil)
	require.NoError(t, err)
	assert.Equal(t, orientation.OrientationRight, snap.Orientation)
	assert.Equal(t, geometry.Size{Width: 20, Height: 40}, snap.ImageSize)
	assert.Equal(t, image.Rect(0, 0, 20, 40), snap.Image().Bounds())
}

func TestScan_LastResultWins(t *testing.T) {
	slow := blank(10, 10)
	started := make(chan struct{})
	release := make(chan struct{})
	engine := &fakeEngine{recognize: func(_ context.Context, req ocr.Request) ([]textgroup.Fragment, error) {
		if req.Image == slow {
			close(started)
			<-release
			return []textgroup.Fragment{frag("old", 0.1, 0.1, 0.2, 0.1)}, nil
		}
		return []textgroup.Fragment{frag("new", 0.1, 0.1, 0.2, 0.1)}, nil
	}}
	s, _ := newSession(t, engine)

	type outcome struct {
		snap *Snapshot
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		snap, err := s.Scan(context.Background(), slow, orientation.Up, nil)
		done <- outcome{snap, err}
	}()
	<-started

	fresh, err := s.Scan(context.Background(), blank(20, 20), orientation.Up, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fresh.Generation)

	close(release)
	var stale outcome
	select {
	case stale = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("slow scan never finished")
	}
	assert.ErrorIs(t, stale.err, ErrSuperseded)
	require.NotNil(t, stale.snap)
	assert.Equal(t, "old", stale.snap.CombinedText())

	current := s.Current()
	assert.Same(t, fresh, current)
	assert.Equal(t, "new", current.CombinedText())
}

func TestScan_ContextDone(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	engine := &fakeEngine{recognize: func(context.Context, ocr.Request) ([]textgroup.Fragment, error) {
		<-release
		return nil, nil
	}}
	s, _ := newSession(t, engine)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Scan(ctx, blank(10, 10), orientation.Up, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, s.Current())
}

func TestReset(t *testing.T) {
	s, _ := newSession(t, returning(frag("x", 0.1, 0.1, 0.1, 0.1)))

	_, err := s.Scan(context.Background(), blank(10, 10), orientation.Up, nil)
	require.NoError(t, err)
	require.NotNil(t, s.Current())

	s.Reset()
	assert.Nil(t, s.Current())
	_, _, ok := s.Layout(geometry.Size{Width: 100, Height: 100})
	assert.False(t, ok)
}

func TestReset_DropsInFlightScan(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	engine := &fakeEngine{recognize: func(context.Context, ocr.Request) ([]textgroup.Fragment, error) {
		close(started)
		<-release
		return nil, nil
	}}
	s, _ := newSession(t, engine)

	done := make(chan error, 1)
	go func() {
		_, err := s.Scan(context.Background(), blank(10, 10), orientation.Up, nil)
		done <- err
	}()
	<-started
	s.Reset()
	close(release)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Nil(t, s.Current())
}

func TestLayout(t *testing.T) {
	s, _ := newSession(t, returning(frag("Hello", 0.25, 0.25, 0.5, 0.5)))
	_, err := s.Scan(context.Background(), blank(200, 100), orientation.Up, nil)
	require.NoError(t, err)

	layout, placements, ok := s.Layout(geometry.Size{Width: 400, Height: 400})
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 0, Y: 100}, layout.Offset)
	require.Len(t, placements, 1)

	p := placements[0]
	assert.Equal(t, "Hello", p.Text)
	assert.Equal(t, geometry.DisplayRect{X: 100, Y: 150, Width: 200, Height: 100}, p.Rect)
	assert.Equal(t, geometry.DisplayRect{X: 96, Y: 148, Width: 208, Height: 104}, p.Highlight)
	assert.Equal(t, p.Highlight, p.TapTarget)

	_, _, ok = s.Layout(geometry.Size{})
	assert.False(t, ok, "degenerate container")
}

func TestTap(t *testing.T) {
	s, store := newSession(t, returning(frag("Hello", 0.25, 0.25, 0.5, 0.5)))

	_, ok := s.Tap(geometry.Size{Width: 400, Height: 400}, geometry.Point{X: 200, Y: 200})
	assert.False(t, ok, "no scan yet")

	_, err := s.Scan(context.Background(), blank(200, 100), orientation.Up, nil)
	require.NoError(t, err)

	g, ok := s.Tap(geometry.Size{Width: 400, Height: 400}, geometry.Point{X: 200, Y: 200})
	require.True(t, ok)
	assert.Equal(t, "Hello", g.CombinedText())

	_, ok = s.Tap(geometry.Size{Width: 400, Height: 400}, geometry.Point{X: 10, Y: 10})
	assert.False(t, ok, "letterbox area")

	items := store.List()
	require.Len(t, items, 1)
	assert.Equal(t, "Hello", items[0].Text)
}

func TestTap_OverlappingTargetsPickLastDrawn(t *testing.T) {
	s, _ := newSession(t, returning(
		frag("A", 0.40, 0.50, 0.02, 0.04),
		frag("B", 0.46, 0.53, 0.02, 0.04),
	))
	_, err := s.Scan(context.Background(), blank(100, 100), orientation.Up, nil)
	require.NoError(t, err)
	require.Len(t, s.Current().Groups, 2)

	container := geometry.Size{Width: 100, Height: 100}
	g, ok := s.Tap(container, geometry.Point{X: 44, Y: 47})
	require.True(t, ok)
	assert.Equal(t, "B", g.CombinedText())

	g, ok = s.Tap(container, geometry.Point{X: 28, Y: 48})
	require.True(t, ok)
	assert.Equal(t, "A", g.CombinedText())
}

func TestCopyAll(t *testing.T) {
	s, store := newSession(t, returning(
		frag("one", 0.1, 0.8, 0.1, 0.05),
		frag("two", 0.1, 0.2, 0.1, 0.05),
	))

	_, err := s.CopyAll()
	assert.ErrorIs(t, err, ErrNoScan)

	_, err = s.Scan(context.Background(), blank(100, 100), orientation.Up, nil)
	require.NoError(t, err)

	text, err := s.CopyAll()
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
	require.Equal(t, 1, store.Len())
	assert.Equal(t, "one\ntwo", store.List()[0].Text)
}

func TestCopyAll_NoTextIsNotRecorded(t *testing.T) {
	s, store := newSession(t, returning())
	_, err := s.Scan(context.Background(), blank(10, 10), orientation.Up, nil)
	require.NoError(t, err)

	_, err = s.CopyAll()
	assert.ErrorIs(t, err, ErrNoScan)
	assert.Equal(t, 0, store.Len())
}

func TestNilHistoryStore(t *testing.T) {
	s, err := New(returning(frag("x", 0.4, 0.4, 0.2, 0.2)), nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Scan(context.Background(), blank(10, 10), orientation.Up, nil)
	require.NoError(t, err)
	text, err := s.CopyAll()
	require.NoError(t, err)
	assert.Equal(t, "x", text)
}

func TestScanBatch(t *testing.T) {
	var calls atomic.Int32
	engine := &fakeEngine{recognize: func(_ context.Context, req ocr.Request) ([]textgroup.Fragment, error) {
		calls.Add(1)
		if req.Image.Bounds().Dx() == 13 {
			return nil, errors.New("unreadable")
		}
		return []textgroup.Fragment{frag("page", 0.1, 0.1, 0.3, 0.1)}, nil
	}}
	s, _ := newSession(t, engine, WithBatchWorkers(2))

	reqs := []BatchRequest{
		{Name: "a.png", Image: blank(10, 10)},
		{Name: "b.png", Image: blank(13, 10)},
		{Name: "c.png", Image: blank(40, 20), Orientation: orientation.Left},
	}
	items := s.ScanBatch(context.Background(), reqs)

	require.Len(t, items, 3)
	assert.Equal(t, int32(3), calls.Load())
	for i, item := range items {
		assert.Equal(t, reqs[i].Name, item.Name)
		require.NotNil(t, item.Snapshot)
		assert.Equal(t, uint64(0), item.Snapshot.Generation)
	}
	assert.Equal(t, "page", items[0].Snapshot.CombinedText())
	assert.True(t, items[1].Snapshot.NoText)
	assert.Contains(t, items[1].Snapshot.Error, "unreadable")
	assert.Equal(t, geometry.Size{Width: 20, Height: 40}, items[2].Snapshot.ImageSize)

	assert.Nil(t, s.Current(), "batch results are not published")
}

func TestNew_InvalidWorkers(t *testing.T) {
	_, err := New(returning(), nil, WithBatchWorkers(0))
	assert.Error(t, err)
}
