package ir

import "strconv"

// DefaultMaxDepth bounds the nesting of expressions, aggregates and filter
// sets. Adversarial input deeper than this fails with ErrDepthExceeded
// instead of exhausting the stack.
const DefaultMaxDepth = 64

// Cursor tracks the path and nesting depth of a validator walking a
// candidate tree. Cursors are values; Key and Index never modify the
// receiver.
type Cursor struct {
	path  string
	depth int
	limit int
}

// Root returns a cursor for the top of a tree named name, bounded by limit.
// A non-positive limit selects DefaultMaxDepth.
func Root(name string, limit int) Cursor {
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	return Cursor{path: name, limit: limit}
}

// Path returns the dotted path of the cursor.
func (c Cursor) Path() string {
	return c.path
}

// Depth returns how many nested nodes have been entered.
func (c Cursor) Depth() int {
	return c.depth
}

// Key returns a cursor for a child key.
func (c Cursor) Key(k string) Cursor {
	if c.path == "" {
		c.path = k
	} else {
		c.path = c.path + "." + k
	}
	return c
}

// Index returns a cursor for an array element.
func (c Cursor) Index(i int) Cursor {
	c.path = c.path + "[" + strconv.Itoa(i) + "]"
	return c
}

// Descend enters a recursive node. It fails once the nesting limit is
// exceeded.
func (c Cursor) Descend() (Cursor, error) {
	c.depth++
	if c.depth > c.limit {
		return c, newError(KindDepth, ErrDepthExceeded, c.path,
			"nesting depth exceeds limit of %d", c.limit)
	}
	return c, nil
}
