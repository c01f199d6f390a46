package bytecode

// Index is a signed 64-bit integer used for shapes, offsets, sizes, PC
// offsets, and function/constant indices.
type Index = int64

// RegName is a signed integer naming a register in a function's register
// file. It is an alias of Index on the wire; every field of an
// instruction's record is stored as an i64 regardless of whether it names
// a register or a size.
type RegName = int64

// DType is the packed (code, bits, lanes) triple describing a tensor's
// element type, exactly as it appears inline in AllocTensor, AllocTensorReg
// and AllocStorage records.
type DType struct {
	Code  Index
	Bits  Index
	Lanes Index
}

// Instruction is a single VM instruction. Op selects the variant; Fields
// holds the variant's payload in wire order, exactly as each factory below
// lays it out. Instruction identity is structural:
// two instructions with the same Op and equal Fields are the same
// instruction, and any Instruction built by a factory below round-trips
// through Encode+Decode unchanged.
//
// Fields is deliberately the single source of truth for both encoding and
// the typed accessors — see the "uniform (opcode, fields[]) representation"
// note in the design docs for why this beats a per-variant struct
// hierarchy: the encoder writes the slice as is, and the accessors index
// into it at fixed positions. Only the decoder consults the fieldLayout
// table, to check a record's field count.
type Instruction struct {
	Op     Opcode
	Fields []Index
}

// Move copies the value in register from into register dst.
func Move(from, dst RegName) Instruction {
	return Instruction{OpMove, []Index{from, dst}}
}

// Ret returns the value held in register result from the current function.
func Ret(result RegName) Instruction {
	return Instruction{OpRet, []Index{result}}
}

// Fatal aborts execution unconditionally.
func Fatal() Instruction {
	return Instruction{OpFatal, nil}
}

// InvokePacked invokes a primitive operator by its packed index. arity
// counts both input and output registers listed in args; outputSize is the
// number of trailing args that receive outputs.
func InvokePacked(packedIndex, arity, outputSize Index, args []RegName) Instruction {
	fields := make([]Index, 0, 3+len(args))
	fields = append(fields, packedIndex, arity, outputSize)
	fields = append(fields, args...)
	return Instruction{OpInvokePacked, fields}
}

// AllocTensor allocates a tensor with a statically known shape, viewing
// storage at the given byte offset.
func AllocTensor(storage, offset RegName, dtype DType, own Index, dst RegName, shape []Index) Instruction {
	fields := make([]Index, 0, 8+len(shape))
	fields = append(fields,
		storage, offset,
		dtype.Code, dtype.Bits, dtype.Lanes,
		own,
		Index(len(shape)),
		dst,
	)
	fields = append(fields, shape...)
	return Instruction{OpAllocTensor, fields}
}

// AllocTensorReg allocates a tensor whose shape is read from a register at
// run time rather than known statically.
func AllocTensorReg(storage, offset RegName, shapeRegister Index, dtype DType, dst RegName, own Index) Instruction {
	return Instruction{OpAllocTensorReg, []Index{
		storage, offset, shapeRegister,
		dtype.Code, dtype.Bits, dtype.Lanes,
		dst, own,
	}}
}

// AllocStorage allocates a raw storage block of allocSize bytes with the
// given alignment on the named device.
func AllocStorage(allocSize, alignment Index, dtype DType, deviceType, deviceID Index, dst RegName) Instruction {
	return Instruction{OpAllocStorage, []Index{
		allocSize, alignment,
		dtype.Code, dtype.Bits, dtype.Lanes,
		deviceType, deviceID, dst,
	}}
}

// Free releases the storage or tensor held in register memory.
func Free(memory RegName) Instruction {
	return Instruction{OpFree, []Index{memory}}
}

// AllocTuple packs the given field registers into a tuple value.
func AllocTuple(fields []RegName, dst RegName) Instruction {
	f := make([]Index, 0, 2+len(fields))
	f = append(f, Index(len(fields)), dst)
	f = append(f, fields...)
	return Instruction{OpAllocTuple, f}
}

// AllocClosure builds a closure over funcIndex, capturing freeVars.
func AllocClosure(funcIndex Index, freeVars []RegName, dst RegName) Instruction {
	f := make([]Index, 0, 3+len(freeVars))
	f = append(f, funcIndex, Index(len(freeVars)), dst)
	f = append(f, freeVars...)
	return Instruction{OpAllocClosure, f}
}

// SetShape rebinds data's shape metadata to the shape held in register
// shape, producing a new tensor view in dst.
func SetShape(data, shape RegName, dst RegName) Instruction {
	return Instruction{OpSetShape, []Index{data, shape, dst}}
}

// If branches on the truthiness of register test, adjusting the program
// counter by trueOffset or falseOffset. target is carried for
// interpreter-specific bookkeeping (e.g. profiling a branch site).
func If(test, target, trueOffset, falseOffset Index) Instruction {
	return Instruction{OpIf, []Index{test, target, trueOffset, falseOffset}}
}

// InvokeFunc calls the function at funcIndex with args, storing the result
// in dst.
func InvokeFunc(funcIndex Index, args []RegName, dst RegName) Instruction {
	f := make([]Index, 0, 3+len(args))
	f = append(f, funcIndex, Index(len(args)), dst)
	f = append(f, args...)
	return Instruction{OpInvokeFunc, f}
}

// InvokeClosure calls the closure held in register closure with args,
// storing the result in dst.
func InvokeClosure(closure RegName, args []RegName, dst RegName) Instruction {
	f := make([]Index, 0, 3+len(args))
	f = append(f, closure, Index(len(args)), dst)
	f = append(f, args...)
	return Instruction{OpInvokeClosure, f}
}

// LoadConst loads constant pool entry constIndex into register dst.
func LoadConst(constIndex Index, dst RegName) Instruction {
	return Instruction{OpLoadConst, []Index{constIndex, dst}}
}

// LoadConsti loads the immediate integer imm into register dst.
func LoadConsti(imm Index, dst RegName) Instruction {
	return Instruction{OpLoadConsti, []Index{imm, dst}}
}

// GetField extracts field fieldIndex out of the tuple in register object.
func GetField(object, fieldIndex Index, dst RegName) Instruction {
	return Instruction{OpGetField, []Index{object, fieldIndex, dst}}
}

// Goto unconditionally adjusts the program counter by pcOffset.
func Goto(pcOffset Index) Instruction {
	return Instruction{OpGoto, []Index{pcOffset}}
}

// InvokeJit invokes a JIT-compiled operator held in register opReg.
func InvokeJit(opReg RegName, arity, outputSize Index, args []RegName) Instruction {
	f := make([]Index, 0, 3+len(args))
	f = append(f, opReg, arity, outputSize)
	f = append(f, args...)
	return Instruction{OpInvokeJit, f}
}

// InferType runs the type-inference rule for the operator in opReg over
// args, storing the inferred type in dst.
func InferType(opReg RegName, args []RegName, dst RegName) Instruction {
	f := make([]Index, 0, 3+len(args))
	f = append(f, opReg, Index(len(args)), dst)
	f = append(f, args...)
	return Instruction{OpInferType, f}
}

// CudaSetStream selects the active CUDA stream for a device.
func CudaSetStream(deviceID, streamID Index) Instruction {
	return Instruction{OpCudaSetStream, []Index{deviceID, streamID}}
}

// CudaAddEvent records an event on a CUDA stream.
func CudaAddEvent(eventID, streamID Index) Instruction {
	return Instruction{OpCudaAddEvent, []Index{eventID, streamID}}
}

// CudaWaitEvent blocks a CUDA stream on a previously recorded event.
func CudaWaitEvent(eventID, streamID Index) Instruction {
	return Instruction{OpCudaWaitEvent, []Index{eventID, streamID}}
}

// CudaStreamBarrier synchronizes all outstanding CUDA streams.
func CudaStreamBarrier() Instruction {
	return Instruction{OpCudaStreamBarrier, nil}
}

// --- Typed field accessors ---
//
// These decode Fields on demand rather than caching a parsed struct, so
// Instruction stays a single flat type. Each accessor assumes Fields has
// already passed the decoder's field-count check (or was built by the
// matching factory above), and panics on a short slice — the same
// contract the source's field accessors have.

// MoveOperands returns Move's (from, dst) pair.
func (i Instruction) MoveOperands() (from, dst RegName) {
	return i.Fields[0], i.Fields[1]
}

// RetResult returns Ret's result register.
func (i Instruction) RetResult() RegName { return i.Fields[0] }

// InvokePackedFields returns InvokePacked's payload.
func (i Instruction) InvokePackedFields() (packedIndex, arity, outputSize Index, args []RegName) {
	return i.Fields[0], i.Fields[1], i.Fields[2], i.Fields[3:]
}

// AllocTensorFields returns AllocTensor's payload.
func (i Instruction) AllocTensorFields() (storage, offset RegName, dtype DType, own Index, dst RegName, shape []Index) {
	dtype = DType{Code: i.Fields[2], Bits: i.Fields[3], Lanes: i.Fields[4]}
	return i.Fields[0], i.Fields[1], dtype, i.Fields[5], i.Fields[7], i.Fields[8:]
}

// AllocTensorRegFields returns AllocTensorReg's payload.
func (i Instruction) AllocTensorRegFields() (storage, offset RegName, shapeRegister Index, dtype DType, dst RegName, own Index) {
	dtype = DType{Code: i.Fields[3], Bits: i.Fields[4], Lanes: i.Fields[5]}
	return i.Fields[0], i.Fields[1], i.Fields[2], dtype, i.Fields[6], i.Fields[7]
}

// AllocStorageFields returns AllocStorage's payload.
func (i Instruction) AllocStorageFields() (allocSize, alignment Index, dtype DType, deviceType, deviceID Index, dst RegName) {
	dtype = DType{Code: i.Fields[2], Bits: i.Fields[3], Lanes: i.Fields[4]}
	return i.Fields[0], i.Fields[1], dtype, i.Fields[5], i.Fields[6], i.Fields[7]
}

// FreeMemory returns Free's memory register.
func (i Instruction) FreeMemory() RegName { return i.Fields[0] }

// AllocTupleFields returns AllocTuple's payload.
func (i Instruction) AllocTupleFields() (dst RegName, fields []RegName) {
	return i.Fields[1], i.Fields[2:]
}

// AllocClosureFields returns AllocClosure's payload.
func (i Instruction) AllocClosureFields() (funcIndex Index, dst RegName, freeVars []RegName) {
	return i.Fields[0], i.Fields[2], i.Fields[3:]
}

// SetShapeFields returns SetShape's payload.
func (i Instruction) SetShapeFields() (data, shape, dst RegName) {
	return i.Fields[0], i.Fields[1], i.Fields[2]
}

// IfFields returns If's payload.
func (i Instruction) IfFields() (test, target, trueOffset, falseOffset Index) {
	return i.Fields[0], i.Fields[1], i.Fields[2], i.Fields[3]
}

// InvokeFuncFields returns InvokeFunc's payload.
func (i Instruction) InvokeFuncFields() (funcIndex Index, dst RegName, args []RegName) {
	return i.Fields[0], i.Fields[2], i.Fields[3:]
}

// InvokeClosureFields returns InvokeClosure's payload.
func (i Instruction) InvokeClosureFields() (closure RegName, dst RegName, args []RegName) {
	return i.Fields[0], i.Fields[2], i.Fields[3:]
}

// LoadConstFields returns LoadConst's payload.
func (i Instruction) LoadConstFields() (constIndex Index, dst RegName) {
	return i.Fields[0], i.Fields[1]
}

// LoadConstiFields returns LoadConsti's payload.
func (i Instruction) LoadConstiFields() (imm Index, dst RegName) {
	return i.Fields[0], i.Fields[1]
}

// GetFieldFields returns GetField's payload.
func (i Instruction) GetFieldFields() (object, fieldIndex Index, dst RegName) {
	return i.Fields[0], i.Fields[1], i.Fields[2]
}

// GotoOffset returns Goto's pc offset.
func (i Instruction) GotoOffset() Index { return i.Fields[0] }

// InvokeJitFields returns InvokeJit's payload.
func (i Instruction) InvokeJitFields() (opReg RegName, arity, outputSize Index, args []RegName) {
	return i.Fields[0], i.Fields[1], i.Fields[2], i.Fields[3:]
}

// InferTypeFields returns InferType's payload.
func (i Instruction) InferTypeFields() (opReg RegName, dst RegName, args []RegName) {
	return i.Fields[0], i.Fields[2], i.Fields[3:]
}

// CudaSetStreamFields returns CudaSetStream's payload.
func (i Instruction) CudaSetStreamFields() (deviceID, streamID Index) {
	return i.Fields[0], i.Fields[1]
}

// CudaEventFields returns CudaAddEvent's or CudaWaitEvent's payload.
func (i Instruction) CudaEventFields() (eventID, streamID Index) {
	return i.Fields[0], i.Fields[1]
}
