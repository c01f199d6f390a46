package bytecode

import (
	"fmt"
	"strings"

	ravmerr "github.com/tensorlang/ravm/errors"
)

// EncodeInstruction writes instr as a record: opcode(u64), field_count(u64),
// then field_count little-endian i64 fields. This is the only encoding
// path — every opcode goes through the same three writes, driven entirely
// by instr.Fields, which is why building an Instruction only through the
// factories in instruction.go is what makes the round-trip contract hold.
func EncodeInstruction(w *Writer, instr Instruction) {
	w.WriteUint64(uint64(instr.Op))
	w.WriteUint64(uint64(len(instr.Fields)))
	for _, f := range instr.Fields {
		w.WriteInt64(f)
	}
}

// DecodeInstruction reads one instruction record from r.
//
// The field_count declared on the wire (actual) is checked against the
// opcode's expected count recomputed from the fields themselves (via
// fieldLayout.expectedFieldCount) — for opcodes with a variable tail, the
// element controlling the tail length sits inside the fixed prefix, so
// this recomputation only ever needs a single forward pass with no
// backtracking.
func DecodeInstruction(r *Reader) (Instruction, error) {
	opRaw, err := r.ReadUint64()
	if err != nil {
		return Instruction{}, err
	}
	fieldCount, err := r.ReadUint64()
	if err != nil {
		return Instruction{}, err
	}
	// Guard against an adversarial huge field_count before allocating.
	if fieldCount > 0 && fieldCount > uint64(r.Remaining())/8 {
		return Instruction{}, ravmerr.ErrTruncatedStream
	}
	fields := make([]Index, fieldCount)
	for i := range fields {
		v, err := r.ReadInt64()
		if err != nil {
			return Instruction{}, err
		}
		fields[i] = v
	}

	op := Opcode(opRaw)
	layout, ok := opcodeLayouts[op]
	if !ok || uint64(op) != opRaw {
		return Instruction{}, &ravmerr.UnknownOpcodeError{Raw: opRaw}
	}

	expected := layout.expectedFieldCount(fields)
	if expected != int(fieldCount) {
		return Instruction{}, &ravmerr.MalformedInstructionError{
			Opcode:   opRaw,
			Expected: expected,
			Actual:   int(fieldCount),
		}
	}

	return Instruction{Op: op, Fields: fields}, nil
}

// Disassemble renders instr as a single disassembly line in the form
// "<index>: <opcode> <raw fields...>  # <rendering>", matching the layout
// spec.md's disassembly scenarios pin (e.g. "0: Ret 0").
func Disassemble(index int, instr Instruction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d: %s", index, instr.Op)
	for _, f := range instr.Fields {
		fmt.Fprintf(&sb, " %d", f)
	}
	fmt.Fprintf(&sb, "  # %s", renderInstruction(instr))
	return sb.String()
}

// renderInstruction produces a short human-readable gloss of instr for
// disassembly output. It never fails: fields are already known well-formed
// by the time an Instruction exists.
func renderInstruction(instr Instruction) string {
	switch instr.Op {
	case OpMove:
		from, dst := instr.MoveOperands()
		return fmt.Sprintf("move %%%d -> %%%d", from, dst)
	case OpRet:
		return fmt.Sprintf("ret %%%d", instr.RetResult())
	case OpFatal:
		return "fatal"
	case OpInvokePacked:
		packedIdx, arity, outSize, args := instr.InvokePackedFields()
		return fmt.Sprintf("invoke_packed #%d arity=%d out=%d args=%v", packedIdx, arity, outSize, args)
	case OpAllocTensor:
		storage, offset, dtype, own, dst, shape := instr.AllocTensorFields()
		return fmt.Sprintf("alloc_tensor storage=%%%d offset=%d dtype=(%d,%d,%d) own=%d dst=%%%d shape=%v",
			storage, offset, dtype.Code, dtype.Bits, dtype.Lanes, own, dst, shape)
	case OpAllocTensorReg:
		storage, offset, shapeReg, dtype, dst, own := instr.AllocTensorRegFields()
		return fmt.Sprintf("alloc_tensor_reg storage=%%%d offset=%d shape_reg=%%%d dtype=(%d,%d,%d) dst=%%%d own=%d",
			storage, offset, shapeReg, dtype.Code, dtype.Bits, dtype.Lanes, dst, own)
	case OpAllocStorage:
		allocSize, alignment, dtype, devType, devID, dst := instr.AllocStorageFields()
		return fmt.Sprintf("alloc_storage size=%d align=%d dtype=(%d,%d,%d) dev=(%d,%d) dst=%%%d",
			allocSize, alignment, dtype.Code, dtype.Bits, dtype.Lanes, devType, devID, dst)
	case OpFree:
		return fmt.Sprintf("free %%%d", instr.FreeMemory())
	case OpAllocTuple:
		dst, fields := instr.AllocTupleFields()
		return fmt.Sprintf("alloc_tuple dst=%%%d fields=%v", dst, fields)
	case OpAllocClosure:
		funcIdx, dst, freeVars := instr.AllocClosureFields()
		return fmt.Sprintf("alloc_closure func=#%d dst=%%%d free_vars=%v", funcIdx, dst, freeVars)
	case OpSetShape:
		data, shape, dst := instr.SetShapeFields()
		return fmt.Sprintf("set_shape data=%%%d shape=%%%d dst=%%%d", data, shape, dst)
	case OpIf:
		test, target, trueOff, falseOff := instr.IfFields()
		return fmt.Sprintf("if %%%d target=%d true=%+d false=%+d", test, target, trueOff, falseOff)
	case OpInvokeFunc:
		funcIdx, dst, args := instr.InvokeFuncFields()
		return fmt.Sprintf("invoke_func #%d dst=%%%d args=%v", funcIdx, dst, args)
	case OpInvokeClosure:
		closure, dst, args := instr.InvokeClosureFields()
		return fmt.Sprintf("invoke_closure %%%d dst=%%%d args=%v", closure, dst, args)
	case OpLoadConst:
		constIdx, dst := instr.LoadConstFields()
		return fmt.Sprintf("load_const #%d -> %%%d", constIdx, dst)
	case OpLoadConsti:
		imm, dst := instr.LoadConstiFields()
		return fmt.Sprintf("load_consti %d -> %%%d", imm, dst)
	case OpGetField:
		object, fieldIdx, dst := instr.GetFieldFields()
		return fmt.Sprintf("get_field %%%d[%d] -> %%%d", object, fieldIdx, dst)
	case OpGoto:
		return fmt.Sprintf("goto %+d", instr.GotoOffset())
	case OpInvokeJit:
		opReg, arity, outSize, args := instr.InvokeJitFields()
		return fmt.Sprintf("invoke_jit %%%d arity=%d out=%d args=%v", opReg, arity, outSize, args)
	case OpInferType:
		opReg, dst, args := instr.InferTypeFields()
		return fmt.Sprintf("infer_type %%%d dst=%%%d args=%v", opReg, dst, args)
	case OpCudaSetStream:
		devID, streamID := instr.CudaSetStreamFields()
		return fmt.Sprintf("cuda_set_stream dev=%d stream=%d", devID, streamID)
	case OpCudaAddEvent:
		eventID, streamID := instr.CudaEventFields()
		return fmt.Sprintf("cuda_add_event event=%d stream=%d", eventID, streamID)
	case OpCudaWaitEvent:
		eventID, streamID := instr.CudaEventFields()
		return fmt.Sprintf("cuda_wait_event event=%d stream=%d", eventID, streamID)
	case OpCudaStreamBarrier:
		return "cuda_stream_barrier"
	default:
		return "?"
	}
}
