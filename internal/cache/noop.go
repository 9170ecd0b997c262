package cache

import (
	"context"
	"time"
)

// Noop never stores anything.
type Noop struct{}

// NewNoop returns a cache that always misses.
func NewNoop() Noop { return Noop{} }

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }
