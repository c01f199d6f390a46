//go:build deadlock

package vm

import "github.com/sasha-s/go-deadlock"

// rwMutex is go-deadlock's RWMutex under -tags deadlock: a drop-in
// sync.RWMutex replacement that panics with a stack trace on suspected
// deadlock instead of hanging forever.
type rwMutex = deadlock.RWMutex
