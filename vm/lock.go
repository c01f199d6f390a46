//go:build !deadlock

package vm

import "sync"

// rwMutex is sync.RWMutex in normal builds. Building with -tags deadlock
// swaps in go-deadlock's drop-in replacement (lock_deadlock.go) to catch
// accidental lock misuse while exercising the registry — never required
// for correctness, only for catching bugs during development.
type rwMutex = sync.RWMutex
