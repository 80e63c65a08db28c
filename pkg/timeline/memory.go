package timeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store backed by a map keyed on the
// canonical tuple. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string // insertion order of keys, for stable iteration
	cursor  Cursor
	hasCur  bool
}

// NewMemoryStore returns an empty in-memory timeline store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func tupleKey(r Record) string {
	return fmt.Sprintf("%d\x1f%s\x1f%d\x1f%s", r.Event.Slot, r.Event.Signature, r.Event.SourceEventSequence, r.Event.SourceEventName)
}

// Append inserts records, skipping any whose canonical tuple is
// already present. The whole batch is applied under a single lock, so
// a page either fully lands or (on no records) is a no-op — there is
// no partial-apply path since every individual insert here cannot
// fail.
func (m *MemoryStore) Append(ctx context.Context, records []Record) (AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res AppendResult
	for _, r := range records {
		k := tupleKey(r)
		if _, exists := m.records[k]; exists {
			res.Duplicates++
			continue
		}
		m.records[k] = r
		m.order = append(m.order, k)
		res.Processed++
	}
	return res, nil
}

// Query returns matching records ordered by (seq, slot, signature).
func (m *MemoryStore) Query(ctx context.Context, q Query) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, 0, len(m.order))
	for _, k := range m.order {
		r := m.records[k]
		if !matches(r, q) {
			continue
		}
		out = append(out, r)
	}

	sortRecords(out)
	return out, nil
}

// sortRecords orders records by (seq, slot, signature), the stable
// query order required by §4.D regardless of store implementation.
func sortRecords(out []Record) {
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Event, out[j].Event
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.Signature < b.Signature
	})
}

func matches(r Record, q Query) bool {
	if q.TaskPda != "" && r.Event.TaskPda != q.TaskPda {
		return false
	}
	if q.DisputePda != "" {
		onchain, _ := r.Event.Payload["onchain"].(map[string]interface{})
		id, _ := onchain["disputeId"].(string)
		if id != q.DisputePda {
			return false
		}
	}
	if r.Event.Slot < q.FromSlot {
		return false
	}
	if q.HasToSlot && r.Event.Slot > q.ToSlot {
		return false
	}
	return true
}

func (m *MemoryStore) GetCursor(ctx context.Context) (Cursor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasCur {
		return Cursor{}, ErrNotFound
	}
	return m.cursor, nil
}

func (m *MemoryStore) SetCursor(ctx context.Context, c Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = c
	m.hasCur = true
	return nil
}

func (m *MemoryStore) Close() error { return nil }
