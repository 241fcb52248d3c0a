// Package viewport decides which pages of a long document are materialized.
//
// A page is held materialized while it is inside the visibility margin around the
// viewport or inside the preload window around the current page. Pages leaving both
// are demoted to placeholders, except pages whose height is still unknown: demoting
// those would remount them later at an estimated height and shift the scroll position.
package viewport

// State is the materialization state of one page.
type State int

const (
	Unmounted State = iota
	Preloading
	Mounted
)

func (s State) String() string {
	switch s {
	case Preloading:
		return "preloading"
	case Mounted:
		return "mounted"
	default:
		return "unmounted"
	}
}

// MarshalText lets State appear as a string in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	// PageAspectRatio is height/width of an ISO 216 page, used for unmeasured placeholders.
	PageAspectRatio = 1.4142
	// PageGap separates pages in continuous layout.
	PageGap = 16.0
)

// Options tunes the engine.
type Options struct {
	PreloadWindow int
	Margin        float64
	BaseWidth     float64
}

// PageRecord is the engine's view of one page.
type PageRecord struct {
	Page     int     `json:"page"`
	Height   float64 `json:"height"`
	Measured bool    `json:"measured"`
	State    State   `json:"state"`
	Visible  bool    `json:"visible"`
	Rendered bool    `json:"rendered"`
	Failed   bool    `json:"failed"`
}

// Change lists pages demoted by an engine update. Their surfaces should be released.
type Change struct {
	Unmounted []int
}

func (c *Change) merge(o Change) {
	c.Unmounted = append(c.Unmounted, o.Unmounted...)
}

// Geometry is the tuple every measured height depends on.
type Geometry struct {
	ViewportWidth  float64 `json:"viewport_width"`
	ViewportHeight float64 `json:"viewport_height"`
	Zoom           float64 `json:"zoom"`
	FitToWidth     bool    `json:"fit_to_width"`
}

// Engine is not safe for concurrent use; the owning session serializes access.
type Engine struct {
	opts       Options
	pages      []PageRecord
	current    int
	continuous bool
	geometry   Geometry
	generation uint64
	scrollTop  float64
}

// NewEngine creates an engine with no pages in single-page mode.
func NewEngine(opts Options) *Engine {
	if opts.PreloadWindow < 0 {
		opts.PreloadWindow = 0
	}
	if opts.Margin < 0 {
		opts.Margin = 0
	}
	if opts.BaseWidth <= 0 {
		opts.BaseWidth = 800
	}
	return &Engine{
		opts:    opts,
		current: 1,
		geometry: Geometry{
			ViewportWidth:  opts.BaseWidth,
			ViewportHeight: opts.BaseWidth * PageAspectRatio,
			Zoom:           1.0,
		},
		generation: 1,
	}
}

// SetPageCount replaces the page table. All previous records are dropped.
func (e *Engine) SetPageCount(n int) Change {
	var change Change
	for _, rec := range e.pages {
		if rec.State != Unmounted {
			change.Unmounted = append(change.Unmounted, rec.Page)
		}
	}
	if n < 0 {
		n = 0
	}
	e.pages = make([]PageRecord, n)
	for i := range e.pages {
		e.pages[i] = PageRecord{Page: i + 1}
	}
	if e.current > n {
		e.current = n
	}
	if e.current < 1 {
		e.current = 1
	}
	e.generation++
	change.merge(e.reconcile())
	return change
}

// PageCount returns the number of pages in the table.
func (e *Engine) PageCount() int {
	return len(e.pages)
}

// SetCurrentPage moves the preload window.
func (e *Engine) SetCurrentPage(page int) Change {
	e.current = page
	return e.reconcile()
}

// SetContinuous switches between continuous layout and single-page display.
// Leaving continuous mode forgets all visibility tracking.
func (e *Engine) SetContinuous(on bool) Change {
	if e.continuous == on {
		return Change{}
	}
	e.continuous = on
	if !on {
		for i := range e.pages {
			e.pages[i].Visible = false
		}
		e.scrollTop = 0
	}
	return e.reconcile()
}

// Continuous reports the layout mode.
func (e *Engine) Continuous() bool {
	return e.continuous
}

// SetGeometry applies viewport size, zoom and fit-to-width. A change to the viewport
// width, zoom or fit flag clears every measured height and starts a new render generation.
func (e *Engine) SetGeometry(g Geometry) Change {
	invalidate := g.ViewportWidth != e.geometry.ViewportWidth ||
		g.Zoom != e.geometry.Zoom ||
		g.FitToWidth != e.geometry.FitToWidth
	e.geometry = g
	if !invalidate {
		if e.continuous {
			return e.ObserveScroll(e.scrollTop)
		}
		return Change{}
	}

	e.generation++
	for i := range e.pages {
		e.pages[i].Height = 0
		e.pages[i].Measured = false
		e.pages[i].Rendered = false
	}
	if e.continuous {
		return e.ObserveScroll(e.scrollTop)
	}
	return e.reconcile()
}

// Geometry returns the current geometry inputs.
func (e *Engine) Geometry() Geometry {
	return e.geometry
}

// RenderWidth is the layout width pages are rendered at.
func (e *Engine) RenderWidth() float64 {
	if e.geometry.FitToWidth {
		return e.geometry.ViewportWidth
	}
	return e.opts.BaseWidth * e.geometry.Zoom
}

// Generation changes whenever previously rendered output stops matching the geometry.
func (e *Engine) Generation() uint64 {
	return e.generation
}

// SetVisible records an enter/exit event from a visibility tracker.
// Visibility is ignored outside continuous mode.
func (e *Engine) SetVisible(page int, visible bool) Change {
	rec := e.record(page)
	if rec == nil || !e.continuous || rec.Visible == visible {
		return Change{}
	}
	rec.Visible = visible
	return e.reconcile()
}

// RecordRender stores the measured height of a successfully rendered page.
// A render without a positive height cannot be laid out and counts as a failure.
func (e *Engine) RecordRender(page int, height float64) Change {
	rec := e.record(page)
	if rec == nil || rec.State == Unmounted {
		return Change{}
	}
	if height <= 0 {
		return e.RecordFailure(page)
	}
	rec.Height = height
	rec.Measured = true
	rec.Rendered = true
	rec.Failed = false
	return e.reconcile()
}

// RecordFailure demotes a page whose render failed. It stays unmounted until Retry.
func (e *Engine) RecordFailure(page int) Change {
	rec := e.record(page)
	if rec == nil {
		return Change{}
	}
	var change Change
	if rec.State != Unmounted {
		change.Unmounted = append(change.Unmounted, page)
	}
	rec.Failed = true
	rec.Rendered = false
	rec.State = Unmounted
	change.merge(e.reconcile())
	return change
}

// Retry makes a failed page eligible for materialization again.
func (e *Engine) Retry(page int) Change {
	rec := e.record(page)
	if rec == nil || !rec.Failed {
		return Change{}
	}
	rec.Failed = false
	return e.reconcile()
}

// Page returns a copy of one record.
func (e *Engine) Page(page int) (PageRecord, bool) {
	rec := e.record(page)
	if rec == nil {
		return PageRecord{}, false
	}
	return *rec, true
}

// Pages returns a copy of the page table.
func (e *Engine) Pages() []PageRecord {
	out := make([]PageRecord, len(e.pages))
	copy(out, e.pages)
	return out
}

// Materialized reports whether page is Mounted or Preloading.
func (e *Engine) Materialized(page int) bool {
	rec := e.record(page)
	return rec != nil && rec.State != Unmounted
}

// RenderQueue lists materialized pages whose surface is missing for this generation.
func (e *Engine) RenderQueue() []int {
	var out []int
	for _, rec := range e.pages {
		if rec.State != Unmounted && !rec.Rendered && !rec.Failed {
			out = append(out, rec.Page)
		}
	}
	return out
}

func (e *Engine) record(page int) *PageRecord {
	if page < 1 || page > len(e.pages) {
		return nil
	}
	return &e.pages[page-1]
}

func (e *Engine) inPreloadWindow(page int) bool {
	d := page - e.current
	if d < 0 {
		d = -d
	}
	return d <= e.opts.PreloadWindow
}

func (e *Engine) reconcile() Change {
	var change Change
	for i := range e.pages {
		rec := &e.pages[i]
		if rec.Failed {
			rec.State = Unmounted
			continue
		}

		visible := e.continuous && rec.Visible
		inWindow := e.inPreloadWindow(rec.Page)

		var want State
		switch {
		case visible:
			want = Mounted
		case !e.continuous && rec.Page == e.current:
			want = Mounted
		case inWindow:
			want = Preloading
		case rec.State != Unmounted && !rec.Measured:
			want = rec.State
		default:
			want = Unmounted
		}

		if rec.State != Unmounted && want == Unmounted {
			rec.Rendered = false
			change.Unmounted = append(change.Unmounted, rec.Page)
		}
		rec.State = want
	}
	return change
}
