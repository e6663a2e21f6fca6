package audio

import "slices"

// Node is a vertex of the rendering graph.
type Node interface {
	// Kind names the node type ("gain", "oscillator", ...).
	Kind() string
	// Connect routes this node's output into dst's input.
	Connect(dst Node) error
	// Disconnect removes the route to dst, if present.
	Disconnect(dst Node)
	// Dispose detaches the node from the graph. It is idempotent.
	Dispose()
	Disposed() bool
	// NumInputs counts nodes connected into this node.
	NumInputs() int
	// NumOutputs counts nodes and params this node feeds.
	NumOutputs() int

	base() *node
}

// processor renders one block of a node from its mixed input.
type processor interface {
	process(in, out *bus, frame int64)
}

// disposer is implemented by processors that release resources. The node
// itself must not implement it, or embedding types would inherit it.
type disposer interface {
	dispose()
}

type node struct {
	ctx  *Context
	kind string
	proc processor

	inputs  []*node
	outputs []*node
	feeds   []*Param
	params  []*Param

	in, out  bus
	rendered uint64
	busy     bool
	disposed bool
}

func (c *Context) newNode(kind string, proc processor) *node {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nodes++

	return &node{
		ctx:  c,
		kind: kind,
		proc: proc,
		in:   newBus(c.blockSize),
		out:  newBus(c.blockSize),
	}
}

func (n *node) base() *node { return n }

func (n *node) Kind() string { return n.kind }

func (n *node) Connect(dst Node) error {
	if dst == nil {
		return ErrDisposed
	}

	d := dst.base()
	if d.ctx != n.ctx {
		return ErrForeignNode
	}

	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	if n.disposed || d.disposed {
		return ErrDisposed
	}

	if slices.Contains(n.outputs, d) {
		return nil
	}

	n.outputs = append(n.outputs, d)
	d.inputs = append(d.inputs, n)

	return nil
}

func (n *node) Disconnect(dst Node) {
	if dst == nil {
		return
	}

	d := dst.base()

	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	n.outputs = remove(n.outputs, d)
	d.inputs = remove(d.inputs, n)
}

func (n *node) Dispose() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	n.detach()
}

// detach removes n from the graph and releases its processor. Must hold
// ctx.mu.
func (n *node) detach() {
	if n.disposed {
		return
	}

	for _, d := range n.outputs {
		d.inputs = remove(d.inputs, n)
	}

	for _, s := range n.inputs {
		s.outputs = remove(s.outputs, n)
	}

	for _, p := range n.feeds {
		p.mods = slices.DeleteFunc(p.mods, func(m modulation) bool { return m.src == n })
	}

	for _, p := range n.params {
		for _, m := range p.mods {
			m.src.feeds = remove(m.src.feeds, p)
		}

		p.mods = nil
	}

	if d, ok := n.proc.(disposer); ok {
		d.dispose()
	}

	n.inputs, n.outputs, n.feeds = nil, nil, nil
	n.disposed = true
	n.out.silence()
	n.ctx.nodes--
}

func (n *node) Disposed() bool {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	return n.disposed
}

func (n *node) NumInputs() int {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	return len(n.inputs)
}

func (n *node) NumOutputs() int {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()

	return len(n.outputs) + len(n.feeds)
}

// pull renders n for the current pass, once. Must hold ctx.mu.
func (c *Context) pull(n *node) *bus {
	if n.rendered == c.pass {
		return &n.out
	}

	if n.disposed || n.busy {
		return &c.silent
	}

	n.busy = true

	n.in.silence()
	for _, src := range n.inputs {
		n.in.mix(c.pull(src))
	}

	n.proc.process(&n.in, &n.out, c.frame)

	n.busy = false
	n.rendered = c.pass

	return &n.out
}

func remove[T comparable](s []T, v T) []T {
	return slices.DeleteFunc(s, func(x T) bool { return x == v })
}
