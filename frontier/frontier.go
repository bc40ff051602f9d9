package frontier

// Frontier combines the FIFO Queue with the visited Registry. Dequeue is the
// one place a URL is ever marked visited (I1), and it is the sole safeguard
// relied on to keep two workers from ever scanning the same URL (I2, Q5):
// Enqueue applies only a best-effort IsVisited filter before pushing, so the
// queue may legitimately
// hold duplicates of a URL that is still in flight — Dequeue is what makes
// that harmless.
type Frontier struct {
	Queue    *Queue
	Registry *Registry
}

// New builds a Frontier from a fresh queue and registry.
func New() (*Frontier, error) {
	reg, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	return &Frontier{Queue: NewQueue(), Registry: reg}, nil
}

// Enqueue pushes url at depth onto the queue unless the registry already
// knows it as visited. This is a courtesy filter only (I2): because visited
// membership is only authoritative at Claim time, a URL can still race its
// way onto the queue twice before either copy is dequeued. That is fine —
// Dequeue discards the second copy as a no-op.
func (f *Frontier) Enqueue(url string, depth int) {
	if f.Registry.IsVisited(url) {
		return
	}
	f.Queue.Push(Item{URL: url, Depth: depth})
}

// Dequeue pops items off the queue, discarding any that are already visited,
// until it finds one it can claim or the queue runs dry. A claimed item is
// guaranteed to be the only time that URL is ever returned from this
// Frontier (I1, P1).
func (f *Frontier) Dequeue() (Item, bool) {
	for {
		item, ok := f.Queue.pop()
		if !ok {
			return Item{}, false
		}
		if f.Registry.Claim(item.URL) {
			return item, true
		}
		// Already visited: another worker claimed it first, or it was
		// queued twice. Discard and keep looking.
	}
}

// Len reports the number of items currently queued (not yet dequeued).
func (f *Frontier) Len() int {
	return f.Queue.Len()
}

// Visited reports the number of URLs claimed so far.
func (f *Frontier) Visited() int {
	return f.Registry.Len()
}

// Close releases the registry's backing resources.
func (f *Frontier) Close() error {
	return f.Registry.Close()
}
