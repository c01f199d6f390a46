package vm

import (
	"testing"

	"github.com/tensorlang/ravm/pkg/bytecode"
)

// FuzzLoad ensures Load never panics on arbitrary input. Errors are
// expected and acceptable; panics are bugs. Load also bounds every
// length-prefixed allocation (constants, instructions, params) against the
// bytes actually available before allocating, and caps the decompressed
// code section at maxDecompressedCodeSize, so a crafted huge count is
// rejected with ErrTruncatedStream
// rather than attempted as an eager allocation — recover() below cannot
// catch that failure mode, so it is covered separately by
// TestConstantsCountBeyondRemainingFails and its siblings in
// executable_test.go rather than by this fuzz target.
func FuzzLoad(f *testing.F) {
	// Seed 1: a real, valid round-tripped executable.
	func() {
		fn := bytecode.NewVMFunction("main", []string{"x"}, 1, []bytecode.Instruction{bytecode.Ret(0)})
		exe := NewExecutable([]bytecode.VMFunction{fn}, map[string]int64{"main": 0}, []Value{IntValue(7)}, map[string]int64{"add": 0}, nil)
		data, err := exe.Save()
		if err != nil {
			f.Fatalf("Save: %v", err)
		}
		f.Add(data)
	}()

	// Seed 2: empty executable.
	func() {
		exe := NewExecutable(nil, map[string]int64{}, nil, map[string]int64{}, nil)
		data, err := exe.Save()
		if err != nil {
			f.Fatalf("Save: %v", err)
		}
		f.Add(data)
	}()

	// Seed 3: just the magic bytes, truncated.
	f.Add(MagicConstant[:])

	// Seed 4: empty input.
	f.Add([]byte{})

	// Seed 5: a single zero byte.
	f.Add([]byte{0})

	// Seed 6: valid magic with garbage after it.
	f.Add(append(append([]byte{}, MagicConstant[:]...), 0xFF, 0xFF, 0xFF, 0xFF))

	f.Fuzz(func(t *testing.T, data []byte) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Load panicked on %d bytes of input: %v", len(data), r)
			}
		}()
		_, _ = Load(data, nil, nil)
		// Errors are expected and acceptable; panics/OOM are not.
	})
}
