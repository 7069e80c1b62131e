package pagebuf

// PageGuard ties a pin to a scope: dropping the guard unpins the page,
// passing along whether the holder dirtied it. Guards are single-owner;
// transferring ownership (Upgrade*) leaves the source inert, and Drop is
// idempotent and safe on inert guards.
type PageGuard struct {
	pool  *BufferPool
	page  *Page
	dirty bool
}

// Page returns the guarded page, or nil for an inert guard.
func (g *PageGuard) Page() *Page { return g.page }

// ID returns the guarded page's id.
func (g *PageGuard) ID() PageID { return g.page.ID() }

// Data returns the page contents for reading.
func (g *PageGuard) Data() []byte { return g.page.Data() }

// DataMut returns the page contents for writing and marks the guard dirty, so
// the eventual unpin records the mutation.
func (g *PageGuard) DataMut() []byte {
	g.dirty = true
	return g.page.Data()
}

// Drop unpins the page and resets the guard. Dropping an inert guard is a
// no-op.
func (g *PageGuard) Drop() {
	if g.pool != nil && g.page != nil {
		g.pool.UnpinPage(g.page.ID(), g.dirty)
	}
	g.reset()
}

func (g *PageGuard) reset() {
	g.pool = nil
	g.page = nil
	g.dirty = false
}

// UpgradeRead transfers the pin into a read guard holding the page's shared
// latch. The receiver becomes inert without unpinning.
func (g *PageGuard) UpgradeRead() ReadPageGuard {
	pool, page := g.pool, g.page
	g.reset()
	if page != nil {
		page.RLatch()
	}
	return ReadPageGuard{guard: PageGuard{pool: pool, page: page}}
}

// UpgradeWrite transfers the pin into a write guard holding the page's
// exclusive latch. The receiver becomes inert without unpinning.
func (g *PageGuard) UpgradeWrite() WritePageGuard {
	pool, page := g.pool, g.page
	g.reset()
	if page != nil {
		page.WLatch()
	}
	return WritePageGuard{guard: PageGuard{pool: pool, page: page}}
}

// ReadPageGuard holds a pin plus the page's shared latch.
type ReadPageGuard struct {
	guard PageGuard
}

// ID returns the guarded page's id.
func (g *ReadPageGuard) ID() PageID { return g.guard.ID() }

// Data returns the page contents for reading.
func (g *ReadPageGuard) Data() []byte { return g.guard.Data() }

// Drop releases the shared latch, then unpins. Idempotent.
func (g *ReadPageGuard) Drop() {
	if g.guard.pool != nil && g.guard.page != nil {
		g.guard.page.RUnlatch()
		g.guard.Drop()
	}
	g.guard.reset()
}

// WritePageGuard holds a pin plus the page's exclusive latch. Dropping it
// always reports the page dirty: exclusive access implies mutation.
type WritePageGuard struct {
	guard PageGuard
}

// ID returns the guarded page's id.
func (g *WritePageGuard) ID() PageID { return g.guard.ID() }

// Data returns the page contents for reading.
func (g *WritePageGuard) Data() []byte { return g.guard.Data() }

// DataMut returns the page contents for writing.
func (g *WritePageGuard) DataMut() []byte { return g.guard.DataMut() }

// Drop marks the page dirty, releases the exclusive latch, then unpins.
// Idempotent.
func (g *WritePageGuard) Drop() {
	if g.guard.pool != nil && g.guard.page != nil {
		g.guard.dirty = true
		g.guard.page.WUnlatch()
		g.guard.Drop()
	}
	g.guard.reset()
}

// FetchPageBasic fetches page id wrapped in a basic guard.
func (bp *BufferPool) FetchPageBasic(id PageID) (PageGuard, error) {
	page, err := bp.FetchPage(id)
	if err != nil {
		return PageGuard{}, err
	}
	return PageGuard{pool: bp, page: page}, nil
}

// FetchPageRead fetches page id wrapped in a guard holding the shared latch.
func (bp *BufferPool) FetchPageRead(id PageID) (ReadPageGuard, error) {
	page, err := bp.FetchPage(id)
	if err != nil {
		return ReadPageGuard{}, err
	}
	page.RLatch()
	return ReadPageGuard{guard: PageGuard{pool: bp, page: page}}, nil
}

// FetchPageWrite fetches page id wrapped in a guard holding the exclusive
// latch.
func (bp *BufferPool) FetchPageWrite(id PageID) (WritePageGuard, error) {
	page, err := bp.FetchPage(id)
	if err != nil {
		return WritePageGuard{}, err
	}
	page.WLatch()
	return WritePageGuard{guard: PageGuard{pool: bp, page: page}}, nil
}

// NewPageGuarded allocates a fresh page wrapped in a basic guard.
func (bp *BufferPool) NewPageGuarded() (PageGuard, error) {
	page, err := bp.NewPage()
	if err != nil {
		return PageGuard{}, err
	}
	return PageGuard{pool: bp, page: page}, nil
}
