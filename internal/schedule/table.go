package schedule

import "sort"

// Table is the date-ordered schedule. It is not safe for concurrent use.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable builds a table sorted by date. When two entries share a date the
// later one wins.
func NewTable(entries []Entry) *Table {
	byDate := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byDate[e.Date] = e
	}
	sorted := make([]Entry, 0, len(byDate))
	for _, e := range byDate {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	t := &Table{entries: sorted, index: make(map[string]int, len(sorted))}
	for i, e := range sorted {
		t.index[e.Date] = i
	}
	return t
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the rows in date order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Table) Get(date string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	i, ok := t.index[date]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// Set replaces the row with the same date. It reports false when the date
// is not part of the table; rows are never added after construction.
func (t *Table) Set(e Entry) bool {
	if t == nil {
		return false
	}
	i, ok := t.index[e.Date]
	if !ok {
		return false
	}
	t.entries[i] = e
	return true
}

func (t *Table) Dates() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Date
	}
	return out
}

// Records renders every row with the columns of v, in date order.
func (t *Table) Records(v SchemaVersion) []Record {
	if t == nil {
		return nil
	}
	out := make([]Record, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Record(v)
	}
	return out
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	return NewTable(t.Entries())
}
