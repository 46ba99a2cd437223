package ledger

// SeedEntry appends a pre-existing entry to an in-memory store and adjusts the
// balance accordingly. Test helper only.
func SeedEntry(s Store, entry Entry) {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	entry.ID = mem.nextID
	mem.nextID++
	mem.entries = append(mem.entries, entry)
	mem.balances[entry.UserID] += entry.Amount
}

// SeedBalance forces the cached balance for a user on an in-memory store
// without backing entries. Test helper only.
func SeedBalance(s Store, userID string, amount int64) {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	mem.balances[userID] = amount
}

// Entries returns a copy of all entries held by an in-memory store. Test
// helper only.
func Entries(s Store) []Entry {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return nil
	}
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	out := make([]Entry, len(mem.entries))
	copy(out, mem.entries)
	return out
}
