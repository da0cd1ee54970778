package hart

// iCache memoizes the decoded form of instructions keyed by physical
// PC. Entries are plain values (Instr carries no function pointers),
// so the cache stays trivially copyable.
//
// Invalidated wholesale on FENCE.I, SRET/MRET, trap entry, and
// SFENCE.VMA. A single generation counter suffices: bumping it makes
// every existing entry stale without reallocating the map.
type iCache struct {
	entries    map[uint64]cachedInstr
	generation uint64
}

type cachedInstr struct {
	instr      Instr
	generation uint64
}

func newICache() iCache {
	return iCache{entries: make(map[uint64]cachedInstr, 256), generation: 1}
}

func (c *iCache) lookup(pc uint64) (Instr, bool) {
	e, ok := c.entries[pc]
	if !ok || e.generation != c.generation {
		return Instr{}, false
	}
	return e.instr, true
}

func (c *iCache) insert(pc uint64, instr Instr) {
	if len(c.entries) > 4096 {
		// Bound memory use for long-running guests; a cold cache is
		// simply slower, never incorrect.
		c.entries = make(map[uint64]cachedInstr, 256)
	}
	c.entries[pc] = cachedInstr{instr: instr, generation: c.generation}
}

// invalidateAll invalidates every cached entry without walking the map.
func (c *iCache) invalidateAll() {
	c.generation++
}
