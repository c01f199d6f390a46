package bytecode

import (
	"errors"
	"strings"
	"testing"

	ravmerr "github.com/tensorlang/ravm/errors"
)

func TestDisassembleRetLine(t *testing.T) {
	line := Disassemble(0, Ret(0))
	if !strings.HasPrefix(line, "0: Ret 0") {
		t.Errorf("Disassemble(0, Ret(0)) = %q, want prefix %q", line, "0: Ret 0")
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	w := NewWriter()
	w.WriteUint64(999) // no such opcode
	w.WriteUint64(0)
	_, err := DecodeInstruction(NewReader(w.Bytes()))
	var unknown *ravmerr.UnknownOpcodeError
	if !errors.As(err, &unknown) {
		t.Fatalf("DecodeInstruction err = %v, want *UnknownOpcodeError", err)
	}
}

// TestAllocTensorNdimMutation pins scenario 4 from the container's
// end-to-end test suite: an AllocTensor record with ndim byte mutated from
// 3 to 4 while the tail stays 3 entries must fail with
// MalformedInstruction(AllocTensor, 12, 11).
func TestAllocTensorNdimMutation(t *testing.T) {
	dtype := DType{Code: 2, Bits: 32, Lanes: 1}
	instr := AllocTensor(2, 0, dtype, 1, 5, []Index{4, 8, 16})

	w := NewWriter()
	EncodeInstruction(w, instr)
	raw := w.Bytes()

	// Layout: opcode(8) field_count(8) then 8-byte fields. ndim is
	// Fields[6], i.e. byte offset 16 (header) + 6*8 = 64.
	mutated := append([]byte(nil), raw...)
	ndimOffset := 16 + 6*8
	if mutated[ndimOffset] != 3 {
		t.Fatalf("test setup: expected ndim byte 3 at offset %d, got %d", ndimOffset, mutated[ndimOffset])
	}
	mutated[ndimOffset] = 4

	_, err := DecodeInstruction(NewReader(mutated))
	var malformed *ravmerr.MalformedInstructionError
	if !errors.As(err, &malformed) {
		t.Fatalf("DecodeInstruction err = %v, want *MalformedInstructionError", err)
	}
	if malformed.Expected != 12 || malformed.Actual != 11 {
		t.Errorf("MalformedInstructionError = %+v, want Expected=12 Actual=11", malformed)
	}
}

// TestInvokePackedStress pins scenario 6: a variable-tail instruction
// encodes to the exact expected field_count and body, and decodes back to
// the original args in order.
func TestInvokePackedStress(t *testing.T) {
	instr := InvokePacked(7, 5, 2, []RegName{10, 11, 12, 13, 14})
	w := NewWriter()
	EncodeInstruction(w, instr)

	r := NewReader(w.Bytes())
	opRaw, _ := r.ReadUint64()
	fieldCount, _ := r.ReadUint64()
	if Opcode(opRaw) != OpInvokePacked {
		t.Fatalf("opcode = %v, want InvokePacked", Opcode(opRaw))
	}
	if fieldCount != 8 {
		t.Fatalf("field_count = %d, want 8", fieldCount)
	}
	wantBody := []int64{7, 5, 2, 10, 11, 12, 13, 14}
	for i, want := range wantBody {
		got, _ := r.ReadInt64()
		if got != want {
			t.Errorf("body[%d] = %d, want %d", i, got, want)
		}
	}

	decoded, err := DecodeInstruction(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeInstruction: %v", err)
	}
	_, _, _, args := decoded.InvokePackedFields()
	for i, want := range []RegName{10, 11, 12, 13, 14} {
		if args[i] != want {
			t.Errorf("args[%d] = %d, want %d", i, args[i], want)
		}
	}
}

func TestInvokePackedMaxTail(t *testing.T) {
	args := make([]RegName, 1024)
	for i := range args {
		args[i] = RegName(i)
	}
	instr := InvokePacked(0, 1024, 0, args)
	w := NewWriter()
	EncodeInstruction(w, instr)
	decoded, err := DecodeInstruction(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeInstruction: %v", err)
	}
	_, _, _, gotArgs := decoded.InvokePackedFields()
	if len(gotArgs) != 1024 {
		t.Fatalf("len(args) = %d, want 1024", len(gotArgs))
	}
	for i, v := range gotArgs {
		if int(v) != i {
			t.Errorf("args[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestDecodeTruncatedFieldCount(t *testing.T) {
	w := NewWriter()
	w.WriteUint64(uint64(OpMove))
	w.WriteUint64(1 << 40) // absurd field count vs. remaining bytes
	_, err := DecodeInstruction(NewReader(w.Bytes()))
	if !errors.Is(err, ravmerr.ErrTruncatedStream) {
		t.Fatalf("err = %v, want ErrTruncatedStream", err)
	}
}
