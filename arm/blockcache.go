package arm

// blockCache memoizes the (instruction word, decoded handler, fetch cycles)
// triple for recently-executed addresses, skipping the bus read and table
// lookup on a hit. It is strictly an accelerator: disabled by default, and
// every entry is invalidated the instant the bus reports its generation
// counter moved, so enabling it never changes the resulting trajectory,
// only how fast it is reached.
type blockCache struct {
	entries map[uint32]cacheEntry
}

type cacheEntry struct {
	instr      uint32
	handler    armHandler
	cycles     uint32
	generation uint32
}

// blockCacheCapacity bounds memory use; the cache is a pure speed
// accelerator, so when it is full storeARM simply drops every entry and
// starts over.
const blockCacheCapacity = 4096

func newBlockCache() *blockCache {
	return &blockCache{entries: make(map[uint32]cacheEntry, 256)}
}

func (c *blockCache) lookupARM(addr uint32, generation uint32) (instr uint32, handler armHandler, cycles uint32, ok bool) {
	e, present := c.entries[addr]
	if !present || e.generation != generation {
		return 0, nil, 0, false
	}
	return e.instr, e.handler, e.cycles, true
}

func (c *blockCache) storeARM(addr, instr uint32, handler armHandler, cycles uint32, generation uint32) {
	if len(c.entries) >= blockCacheCapacity {
		c.entries = make(map[uint32]cacheEntry, 256)
	}
	c.entries[addr] = cacheEntry{instr: instr, handler: handler, cycles: cycles, generation: generation}
}

// invalidate drops every cached entry. Nothing in this module calls it:
// stale entries are rejected by the generation check in lookupARM.
func (c *blockCache) invalidate() {
	c.entries = make(map[uint32]cacheEntry, 256)
}

// invalidateAddr drops a single cached entry. Like invalidate, it has no
// caller in this module; the generation check covers invalidation.
func (c *blockCache) invalidateAddr(addr uint32) {
	delete(c.entries, addr)
}
