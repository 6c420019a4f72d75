package instance

// DefaultCapacity is the node count a pool starts with and grows by.
const DefaultCapacity = 64

// Pool hands out Array nodes for one decode or edit pass at a time. Nodes
// are never freed individually: ResetAll makes every node available again
// and the storage is kept for the next pass.
//
// A Pool is not safe for concurrent use.
type Pool struct {
	nodes     []*Array
	next      int
	increment int
}

// NewPool preallocates capacity nodes. Non-positive capacities use
// DefaultCapacity.
func NewPool(capacity int) *Pool {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	p := &Pool{increment: capacity}
	p.grow()
	return p
}

// Lease returns an unused node, growing the pool when every node is out.
func (p *Pool) Lease() *Array {
	if p.next == len(p.nodes) {
		p.grow()
	}
	a := p.nodes[p.next]
	p.next++
	a.clear()
	return a
}

// ResetAll returns every leased node to the pool.
func (p *Pool) ResetAll() {
	p.next = 0
}

// Leased is the number of nodes handed out since the last reset.
func (p *Pool) Leased() int { return p.next }

// Cap is the number of nodes the pool owns.
func (p *Pool) Cap() int { return len(p.nodes) }

func (p *Pool) grow() {
	block := make([]Array, p.increment)
	for i := range block {
		p.nodes = append(p.nodes, &block[i])
	}
}
