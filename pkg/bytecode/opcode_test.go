package bytecode

import "testing"

func TestOpcodeString(t *testing.T) {
	cases := []struct {
		op   Opcode
		want string
	}{
		{OpMove, "Move"},
		{OpRet, "Ret"},
		{OpCudaStreamBarrier, "CudaStreamBarrier"},
		{Opcode(9999), "UNKNOWN(9999)"},
	}
	for _, c := range cases {
		if got := c.op.String(); got != c.want {
			t.Errorf("Opcode(%d).String() = %q, want %q", c.op, got, c.want)
		}
	}
}

func TestAllOpcodesHaveLayouts(t *testing.T) {
	ops := AllOpcodes()
	if len(ops) != int(opcodeCount) {
		t.Fatalf("AllOpcodes() returned %d opcodes, want %d", len(ops), opcodeCount)
	}
	for _, op := range ops {
		if _, ok := opcodeLayouts[op]; !ok {
			t.Errorf("opcode %v has no layout entry", op)
		}
	}
}

func TestExpectedFieldCountFixedArity(t *testing.T) {
	layout := opcodeLayouts[OpMove]
	if got := layout.expectedFieldCount([]int64{1, 2}); got != 2 {
		t.Errorf("Move expectedFieldCount = %d, want 2", got)
	}
}

func TestExpectedFieldCountVariableTail(t *testing.T) {
	layout := opcodeLayouts[OpInvokePacked]
	// packed_index, arity, output_size, then arity args.
	fields := []int64{7, 5, 2, 10, 11, 12, 13, 14}
	if got := layout.expectedFieldCount(fields); got != 8 {
		t.Errorf("InvokePacked expectedFieldCount = %d, want 8", got)
	}
}

func TestAllocTensorRegIsEightFieldsFixed(t *testing.T) {
	// Pinned by the executable-container REDESIGN FLAG: AllocTensorReg is
	// an 8-field record with no variable tail, and the same schema is used
	// on both the encode and decode side.
	layout := opcodeLayouts[OpAllocTensorReg]
	if layout.prefixLen != 8 || layout.tailCountPos != -1 {
		t.Errorf("AllocTensorReg layout = %+v, want prefixLen=8 tailCountPos=-1", layout)
	}
}
