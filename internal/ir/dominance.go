package ir

// cfg is the control flow graph of one function, with blocks numbered by
// their position in the function. Block 0 is the entry.
type cfg struct {
	blocks []BlockID
	index  map[BlockID]int
	succs  [][]int
	preds  [][]int
}

func newCFG(blocks []BlockID) *cfg {
	c := &cfg{
		blocks: blocks,
		index:  make(map[BlockID]int, len(blocks)),
		succs:  make([][]int, len(blocks)),
		preds:  make([][]int, len(blocks)),
	}
	for i, b := range blocks {
		c.index[b] = i
	}
	return c
}

// addEdge records from -> to once, however many terminator targets name it.
func (c *cfg) addEdge(from, to int) {
	for _, s := range c.succs[from] {
		if s == to {
			return
		}
	}
	c.succs[from] = append(c.succs[from], to)
	c.preds[to] = append(c.preds[to], from)
}

// postorder returns the blocks reachable from the entry in DFS postorder.
func (c *cfg) postorder() []int {
	n := len(c.blocks)
	if n == 0 {
		return nil
	}
	type frame struct{ node, next int }
	visited := make([]bool, n)
	out := make([]int, 0, n)
	stack := []frame{{node: 0}}
	visited[0] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(c.succs[top.node]) {
			s := c.succs[top.node][top.next]
			top.next++
			if !visited[s] {
				visited[s] = true
				stack = append(stack, frame{node: s})
			}
			continue
		}
		out = append(out, top.node)
		stack = stack[:len(stack)-1]
	}
	return out
}

// dominators computes immediate dominators with the Cooper-Harvey-Kennedy
// iteration. The entry is its own idom; unreachable blocks get -1.
func (c *cfg) dominators() []int {
	n := len(c.blocks)
	idom := make([]int, n)
	for i := range idom {
		idom[i] = -1
	}
	if n == 0 {
		return idom
	}
	post := c.postorder()
	rpoNum := make([]int, n)
	rpo := make([]int, len(post))
	for i, b := range post {
		rpo[len(post)-1-i] = b
	}
	for i, b := range rpo {
		rpoNum[b] = i
	}
	intersect := func(a, b int) int {
		for a != b {
			for rpoNum[a] > rpoNum[b] {
				a = idom[a]
			}
			for rpoNum[b] > rpoNum[a] {
				b = idom[b]
			}
		}
		return a
	}

	idom[0] = 0
	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			next := -1
			for _, p := range c.preds[b] {
				if idom[p] == -1 {
					continue
				}
				if next == -1 {
					next = p
				} else {
					next = intersect(p, next)
				}
			}
			if next != idom[b] {
				idom[b] = next
				changed = true
			}
		}
	}
	return idom
}

// dominates reports whether a dominates b. Every block dominates itself;
// unreachable blocks are dominated by nothing.
func dominates(idom []int, a, b int) bool {
	if idom[a] == -1 || idom[b] == -1 {
		return false
	}
	for x := b; ; x = idom[x] {
		if x == a {
			return true
		}
		if idom[x] == x {
			return false
		}
	}
}
