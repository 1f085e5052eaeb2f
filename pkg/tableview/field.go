// Package tableview applies search, sort and pagination, in that order, to an
// already fetched slice of records. Records are never modified; only the
// references are filtered, reordered and sliced.
package tableview

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps "desc" (any case handled by callers) to Descending and
// everything else to Ascending.
func ParseDirection(s string) Direction {
	if Direction(s) == Descending {
		return Descending
	}
	return Ascending
}

// SortConfig names the active sort column. A zero Key means no sort.
type SortConfig struct {
	Key       string    `json:"key,omitempty"`
	Direction Direction `json:"direction,omitempty"`
}

// IsSet reports whether a sort column is active.
func (s SortConfig) IsSet() bool {
	return s.Key != ""
}

// Toggle flips the direction when key is already active and otherwise starts
// an ascending sort on key.
func (s SortConfig) Toggle(key string) SortConfig {
	if s.Key == key && s.Direction == Ascending {
		return SortConfig{Key: key, Direction: Descending}
	}
	return SortConfig{Key: key, Direction: Ascending}
}

// Indicator renders the column arrow for key, or "" when key is not active.
func (s SortConfig) Indicator(key string) string {
	if s.Key != key {
		return ""
	}
	if s.Direction == Descending {
		return "↓"
	}
	return "↑"
}

// Field is one column of a typed record. Value returns a primitive: string,
// a numeric kind, bool, time.Time, a pointer to one of those, or nil.
type Field[T any] struct {
	Key        string
	Label      string
	Sortable   bool
	Searchable bool
	Value      func(T) any
}

// Fields is the accessor dispatch table of one record type.
type Fields[T any] []Field[T]

// Lookup finds the field registered under key.
func (fs Fields[T]) Lookup(key string) (Field[T], bool) {
	for _, f := range fs {
		if f.Key == key {
			return f, true
		}
	}
	return Field[T]{}, false
}

// Sortable reports whether key names a sortable field.
func (fs Fields[T]) Sortable(key string) bool {
	f, ok := fs.Lookup(key)
	return ok && f.Sortable
}

// Searchable returns the fields consulted by Filter.
func (fs Fields[T]) Searchable() Fields[T] {
	out := make(Fields[T], 0, len(fs))
	for _, f := range fs {
		if f.Searchable {
			out = append(out, f)
		}
	}
	return out
}

// Keys lists field keys in declaration order.
func (fs Fields[T]) Keys() []string {
	keys := make([]string, 0, len(fs))
	for _, f := range fs {
		keys = append(keys, f.Key)
	}
	return keys
}
