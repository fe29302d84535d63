package sqlite

import "context"

// gate bounds how many logical database sessions may be open at once
// against the single file-backed store. Readers share a counting permit
// pool; a writer runs alone by draining the pool. It is a cooperative
// throttle layered above SQLite's own locking, not a replacement
// for it.
type gate struct {
	// permits holds one slot per allowed concurrent reader.
	permits chan struct{}

	// writer serializes writers so two of them cannot deadlock each
	// holding part of the pool.
	writer chan struct{}
}

func newGate(size int) *gate {
	return &gate{
		permits: make(chan struct{}, size),
		writer:  make(chan struct{}, 1),
	}
}

// acquireRead blocks until a shared permit is free or ctx expires.
func (g *gate) acquireRead(ctx context.Context) error {
	select {
	case g.permits <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) releaseRead() {
	<-g.permits
}

// acquireWrite takes the writer slot, then drains the whole permit
// pool so in-flight readers finish before the write begins. On ctx
// expiry every permit taken so far is returned.
func (g *gate) acquireWrite(ctx context.Context) error {
	select {
	case g.writer <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	for i := 0; i < cap(g.permits); i++ {
		select {
		case g.permits <- struct{}{}:
		case <-ctx.Done():
			for ; i > 0; i-- {
				<-g.permits
			}
			<-g.writer
			return ctx.Err()
		}
	}
	return nil
}

func (g *gate) releaseWrite() {
	for i := 0; i < cap(g.permits); i++ {
		<-g.permits
	}
	<-g.writer
}
