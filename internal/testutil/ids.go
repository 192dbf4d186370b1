package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates predictable batch ids: "<prefix>-1", "<prefix>-2", ...
//
// Production code uses UUIDv7 ids, which differ on every run; this keeps
// logs and golden output stable.
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDs creates a generator. An empty prefix becomes "test-batch".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "test-batch"
	}
	return &SequentialIDs{prefix: prefix}
}

// Next returns the next id.
func (g *SequentialIDs) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
