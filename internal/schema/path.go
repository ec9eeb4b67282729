package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadPath indicates a path that could not be parsed or applied.
var ErrBadPath = errors.New("bad field path")

// segment is one step of a parsed path: a map key optionally followed by a
// slice index, e.g. "samples[2]" parses to {key: "samples", index: 2}.
type segment struct {
	key      string
	index    int
	hasIndex bool
}

func parsePath(path string) ([]segment, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadPath)
	}
	var segs []segment
	for _, part := range strings.Split(path, ".") {
		key := part
		idx := -1
		if open := strings.IndexByte(part, '['); open >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
			}
			key = part[:open]
			n, err := strconv.Atoi(part[open+1 : len(part)-1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
			}
			idx = n
		}
		if key == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
		segs = append(segs, segment{key: key, index: idx, hasIndex: idx >= 0})
	}
	return segs, nil
}

// Get reads the value at path from a nested values object. The second return
// is false when any intermediate container is missing.
func Get(values map[string]any, path string) (any, bool) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, false
	}
	var cur any = values
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg.key]
		if !ok {
			return nil, false
		}
		if seg.hasIndex {
			rows, ok := cur.([]any)
			if !ok || seg.index >= len(rows) {
				return nil, false
			}
			cur = rows[seg.index]
		}
	}
	return cur, true
}

// Set writes v at path, creating intermediate maps and growing intermediate
// slices as needed. Subform rows can therefore be written before they are
// explicitly appended.
func Set(values map[string]any, path string, v any) error {
	segs, err := parsePath(path)
	if err != nil {
		return err
	}
	cur := values
	for i, seg := range segs {
		last := i == len(segs)-1
		if !seg.hasIndex {
			if last {
				cur[seg.key] = v
				return nil
			}
			next, ok := cur[seg.key].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[seg.key] = next
			}
			cur = next
			continue
		}

		rows, _ := cur[seg.key].([]any)
		for len(rows) <= seg.index {
			rows = append(rows, make(map[string]any))
		}
		cur[seg.key] = rows
		if last {
			rows[seg.index] = v
			return nil
		}
		next, ok := rows[seg.index].(map[string]any)
		if !ok {
			next = make(map[string]any)
			rows[seg.index] = next
		}
		cur = next
	}
	return nil
}

// Rows returns the subform rows stored at path, or nil when absent.
func Rows(values map[string]any, path string) []any {
	v, ok := Get(values, path)
	if !ok {
		return nil
	}
	rows, _ := v.([]any)
	return rows
}

// AppendRow adds an empty row to the subform at path and returns its index.
func AppendRow(values map[string]any, path string) (int, error) {
	rows := Rows(values, path)
	rows = append(rows, make(map[string]any))
	if err := Set(values, path, any(rows)); err != nil {
		return 0, err
	}
	return len(rows) - 1, nil
}

// RemoveRow splices the row at index out of the subform at path. Remaining
// rows are re-indexed; no stable row identity is preserved.
func RemoveRow(values map[string]any, path string, index int) error {
	rows := Rows(values, path)
	if index < 0 || index >= len(rows) {
		return fmt.Errorf("%w: row %d out of range for %q", ErrBadPath, index, path)
	}
	rows = append(rows[:index], rows[index+1:]...)
	return Set(values, path, any(rows))
}
