package writeback

// DirtyKeys returns sorted snapshots of the pending deletions, insertions and changes.
// This is exported for testing purposes only.
func (c *Cache) DirtyKeys() (deleted, inserted, changed []string) {
	return c.deleted.Keys(), c.inserted.Keys(), c.changed.Keys()
}
