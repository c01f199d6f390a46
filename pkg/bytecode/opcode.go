// Package bytecode defines the register-machine instruction set used by
// the ravm virtual machine and the binary codec that serializes it.
//
// The package is organized the way the original block-VM bytecode package
// was: an Opcode enum with metadata (opcode.go), a tagged Instruction type
// with one factory per opcode (instruction.go), a table-driven record codec
// shared by encoder and decoder (record.go), and a per-function codec
// layered on top of the instruction codec (function.go). None of these
// types execute anything — dispatch belongs to the interpreter, which is
// not part of this package.
package bytecode

import "fmt"

// Opcode is the discriminant of an Instruction variant.
type Opcode uint16

const (
	OpMove Opcode = iota
	OpRet
	OpFatal
	OpInvokePacked
	OpAllocTensor
	OpAllocTensorReg
	OpAllocStorage
	OpFree
	OpAllocTuple
	OpAllocClosure
	OpSetShape
	OpIf
	OpInvokeFunc
	OpInvokeClosure
	OpLoadConst
	OpLoadConsti
	OpGetField
	OpGoto
	OpInvokeJit
	OpInferType
	OpCudaSetStream
	OpCudaAddEvent
	OpCudaWaitEvent
	OpCudaStreamBarrier

	opcodeCount
)

// fieldLayout describes how many fields an opcode's record carries and,
// for opcodes with a variable-length tail, where in the fixed prefix the
// tail's element count lives. tailCountPos is -1 for opcodes with no tail.
//
// expected field count = prefixLen, plus fields[tailCountPos] when the
// opcode has a tail. The count is always read out of the record itself
// (not out of a factory-time value), so a corrupted count field surfaces
// as a mismatch between the declared field_count and the recomputed
// expectation (see DecodeInstruction).
type fieldLayout struct {
	name         string
	prefixLen    int
	tailCountPos int // index into fields where the tail length lives, or -1
}

var opcodeLayouts = map[Opcode]fieldLayout{
	OpMove:             {"Move", 2, -1},
	OpRet:              {"Ret", 1, -1},
	OpFatal:            {"Fatal", 0, -1},
	OpInvokePacked:     {"InvokePacked", 3, 1},
	OpAllocTensor:      {"AllocTensor", 8, 6},
	OpAllocTensorReg:   {"AllocTensorReg", 8, -1},
	OpAllocStorage:     {"AllocStorage", 8, -1},
	OpFree:             {"Free", 1, -1},
	OpAllocTuple:       {"AllocTuple", 2, 0},
	OpAllocClosure:     {"AllocClosure", 3, 1},
	OpSetShape:         {"SetShape", 3, -1},
	OpIf:               {"If", 4, -1},
	OpInvokeFunc:       {"InvokeFunc", 3, 1},
	OpInvokeClosure:    {"InvokeClosure", 3, 1},
	OpLoadConst:        {"LoadConst", 2, -1},
	OpLoadConsti:       {"LoadConsti", 2, -1},
	OpGetField:         {"GetField", 3, -1},
	OpGoto:             {"Goto", 1, -1},
	OpInvokeJit:        {"InvokeJit", 3, 1},
	OpInferType:        {"InferType", 3, 1},
	OpCudaSetStream:    {"CudaSetStream", 2, -1},
	OpCudaAddEvent:     {"CudaAddEvent", 2, -1},
	OpCudaWaitEvent:    {"CudaWaitEvent", 2, -1},
	OpCudaStreamBarrier: {"CudaStreamBarrier", 0, -1},
}

// String returns the opcode's mnemonic, or "UNKNOWN(n)" for an
// unrecognized value.
func (op Opcode) String() string {
	if layout, ok := opcodeLayouts[op]; ok {
		return layout.name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint16(op))
}

// expectedFieldCount computes the field count a decoded record of this
// opcode ought to have, given the fields actually read off the wire. The
// tail-count field is read from fields itself, not from any external
// source, so this can be compared directly against the declared
// field_count to implement the decoder's structural check.
func (l fieldLayout) expectedFieldCount(fields []int64) int {
	if l.tailCountPos < 0 {
		return l.prefixLen
	}
	if l.tailCountPos >= len(fields) {
		// Not enough fields to even find the tail count; the prefix
		// length alone is already a lower bound and will not match a
		// too-short record, which is the correct outcome.
		return l.prefixLen
	}
	return l.prefixLen + int(fields[l.tailCountPos])
}

// AllOpcodes returns every defined opcode, for tests that want to assert
// each one round-trips or has metadata.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeLayouts))
	for op := range opcodeLayouts {
		ops = append(ops, op)
	}
	return ops
}
