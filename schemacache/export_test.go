package schemacache

// Tracked returns how many ids hold a generation counter.
func Tracked(c *Cache) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.gens)
}
