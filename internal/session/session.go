// Package session holds the state of one client's scanning workflow: the
// most recent scan, its groups, and the actions a user takes on them.
//
// A Session replaces the process-wide state of a single-window app. Scans
// run on the OCR engine's goroutine and are published with last-result-wins
// semantics: a scan that finishes after a newer one was started is returned
// to its caller but never becomes the current snapshot.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ironsheep/image-text-mcp/internal/geometry"
	"github.com/ironsheep/image-text-mcp/internal/history"
	"github.com/ironsheep/image-text-mcp/internal/log"
	"github.com/ironsheep/image-text-mcp/internal/ocr"
	"github.com/ironsheep/image-text-mcp/internal/orientation"
	"github.com/ironsheep/image-text-mcp/internal/textgroup"
)

// DefaultBatchWorkers is the batch pool size used when none is configured.
const DefaultBatchWorkers = 4

var (
	// ErrSuperseded is returned by Scan when a newer scan or a Reset happened
	// while it was running. The snapshot is still returned but not published.
	ErrSuperseded = errors.New("scan superseded by a newer scan")

	// ErrNoScan is returned when an operation needs a current snapshot and
	// there is none.
	ErrNoScan = errors.New("no scan available")
)

// Option configures a Session.
type Option func(*Session)

// WithParams sets the grouping thresholds.
func WithParams(p textgroup.Params) Option {
	return func(s *Session) { s.params = p }
}

// WithLanguages sets the OCR languages used when a scan names none.
func WithLanguages(langs ...string) Option {
	return func(s *Session) { s.languages = langs }
}

// WithLevel sets the OCR fragment granularity.
func WithLevel(level ocr.Level) Option {
	return func(s *Session) { s.level = level }
}

// WithBatchWorkers sets the number of concurrent batch scans.
func WithBatchWorkers(n int) Option {
	return func(s *Session) { s.workers = n }
}

// Session is safe for concurrent use.
type Session struct {
	engine    ocr.Engine
	history   *history.Store
	params    textgroup.Params
	languages []string
	level     ocr.Level
	workers   int
	pool      *ants.PoolWithFunc

	mu         sync.Mutex
	generation uint64
	current    *Snapshot
}

// New creates a session that scans with engine and records copied text in
// store. store may be nil, in which case nothing is recorded.
func New(engine ocr.Engine, store *history.Store, opts ...Option) (*Session, error) {
	s := &Session{
		engine:  engine,
		history: store,
		params:  textgroup.DefaultParams(),
		level:   ocr.LevelWord,
		workers: DefaultBatchWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	pool, err := newBatchPool(s.workers)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Close releases the batch worker pool.
func (s *Session) Close() {
	s.pool.Release()
}

// Scan recognizes the text in img, stored with the given orientation tag,
// and groups it. The result becomes the current snapshot unless a newer scan
// or a Reset happened meanwhile, in which case it is returned together with
// ErrSuperseded. A failed recognition is not an error: it yields a snapshot
// with NoText set and the failure in Error.
func (s *Session) Scan(ctx context.Context, img image.Image, tag orientation.ImageOrientation, langs []string) (*Snapshot, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	log.Debugf("session: scan %d started", gen)
	snap, err := s.recognize(ctx, img, tag, langs)
	if err != nil {
		return nil, err
	}
	snap.Generation = gen

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		log.Debugf("session: scan %d finished after scan %d started, discarding", gen, s.generation)
		return snap, ErrSuperseded
	}
	s.current = snap
	log.Debugf("session: scan %d published with %d groups", gen, len(snap.Groups))
	return snap, nil
}

// recognize runs one OCR pass and builds an unpublished snapshot. It only
// fails when ctx is done before the engine delivers.
func (s *Session) recognize(ctx context.Context, img image.Image, tag orientation.ImageOrientation, langs []string) (*Snapshot, error) {
	if len(langs) == 0 {
		langs = s.languages
	}
	o := orientation.Normalize(tag)
	req := ocr.Request{Image: img, Orientation: o, Languages: langs, Level: s.level}

	var res ocr.ScanResult
	select {
	case res = <-ocr.Start(ctx, s.engine, req):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	snap := &Snapshot{
		ImageSize:   res.ImageSize,
		Orientation: res.Orientation,
		Fragments:   res.Fragments,
	}
	if img != nil {
		snap.image = orientation.Apply(img, o)
	}
	if res.Err != nil {
		log.Warnf("session: recognition failed: %v", res.Err)
		snap.Error = res.Err.Error()
		snap.Fragments = []textgroup.Fragment{}
	}
	snap.Groups = textgroup.GroupFragmentsWith(s.params, snap.Fragments)
	snap.NoText = len(snap.Groups) == 0
	return snap, nil
}

// Current returns the latest published snapshot, or nil.
func (s *Session) Current() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset discards the current snapshot. Scans still running when Reset is
// called are not published.
func (s *Session) Reset() {
	s.mu.Lock()
	s.generation++
	s.current = nil
	s.mu.Unlock()
}

// Layout places the current groups inside container. ok is false when there
// is no scan or the geometry is degenerate.
func (s *Session) Layout(container geometry.Size) (geometry.Layout, []Placement, bool) {
	snap := s.Current()
	if snap == nil {
		return geometry.Layout{}, nil, false
	}
	return snap.Layout(container)
}

// Tap resolves a tap at p in a container of the given size. When it hits a
// group, the group's text is recorded in history and the group returned.
func (s *Session) Tap(container geometry.Size, p geometry.Point) (textgroup.Group, bool) {
	snap := s.Current()
	if snap == nil {
		return textgroup.Group{}, false
	}
	g, ok := snap.HitTest(container, p)
	if !ok {
		return textgroup.Group{}, false
	}
	s.record(g.CombinedText())
	return g, true
}

// CopyAll returns the text of every current group, one group per line, and
// records it in history. It returns ErrNoScan when there is nothing to copy.
func (s *Session) CopyAll() (string, error) {
	snap := s.Current()
	if snap == nil || len(snap.Groups) == 0 {
		return "", ErrNoScan
	}
	text := snap.CombinedText()
	s.record(text)
	return text, nil
}

// record adds text to history. A failed write is logged and otherwise
// ignored: the copy itself has already succeeded.
func (s *Session) record(text string) {
	if s.history == nil || text == "" {
		return
	}
	if _, err := s.history.Add(text); err != nil {
		log.Warnf("session: failed to record history: %v", err)
	}
}

// BatchRequest is one image of a batch scan.
type BatchRequest struct {
	Name        string
	Image       image.Image
	Orientation orientation.ImageOrientation
	Languages   []string
}

// BatchItem is the result for one BatchRequest.
type BatchItem struct {
	Name     string    `json:"name"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// ScanBatch scans every request concurrently on the session's worker pool.
// Results are returned in request order and never replace the current
// snapshot.
func (s *Session) ScanBatch(ctx context.Context, reqs []BatchRequest) []BatchItem {
	results := make([]BatchItem, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		results[i].Name = req.Name
		wg.Add(1)
		param := &batchParam{idx: i, ctx: ctx, req: req, sess: s, results: results, wg: &wg}
		if err := s.pool.Invoke(param); err != nil {
			results[i].Error = fmt.Sprintf("failed to schedule scan: %v", err)
			wg.Done()
		}
	}
	wg.Wait()
	return results
}

type batchParam struct {
	idx     int
	ctx     context.Context
	req     BatchRequest
	sess    *Session
	results []BatchItem
	wg      *sync.WaitGroup
}

func newBatchPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("batch pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*batchParam)
		if !ok {
			panic("batch scan pool args type error")
		}
		defer param.wg.Done()
		snap, err := param.sess.recognize(param.ctx, param.req.Image, param.req.Orientation, param.req.Languages)
		if err != nil {
			param.results[param.idx].Error = err.Error()
			return
		}
		param.results[param.idx].Snapshot = snap
	})
	if err != nil {
		return nil, fmt.Errorf("create batch scan pool: %w", err)
	}
	return pool, nil
}
