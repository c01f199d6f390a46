package bytecode

import (
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	ravmerr "github.com/tensorlang/ravm/errors"
)

// VMFunction is one compiled function: a name, its parameter names (whose
// count is the function's arity), a register-file size, and the
// instructions that make up its body.
//
// Position in a function table only matters relative to the executable's
// global map — a VMFunction on its own carries no index.
type VMFunction struct {
	Name             string
	Params           []string
	RegisterFileSize uint64
	Instructions     []Instruction
}

// NewVMFunction builds a function record from its parts.
func NewVMFunction(name string, params []string, registerFileSize uint64, instructions []Instruction) VMFunction {
	return VMFunction{
		Name:             name,
		Params:           params,
		RegisterFileSize: registerFileSize,
		Instructions:     instructions,
	}
}

// Arity is the number of parameters this function takes.
func (f VMFunction) Arity() int { return len(f.Params) }

// EncodeFunction writes a function record: name, register_file_size,
// num_instructions, params, then num_instructions instruction records in
// order — the layout §4.D specifies.
func EncodeFunction(w *Writer, fn VMFunction) {
	w.WriteString(fn.Name)
	w.WriteUint64(fn.RegisterFileSize)
	w.WriteUint64(uint64(len(fn.Instructions)))
	w.WriteVecString(fn.Params)
	for _, instr := range fn.Instructions {
		EncodeInstruction(w, instr)
	}
}

// DecodeFunction reads a function record. It does not consult or populate
// any global map — callers are responsible for the "name must appear in
// the previously loaded global section" invariant and for placing the
// result at the global-assigned index rather than its position in the
// code section.
func DecodeFunction(r *Reader) (VMFunction, error) {
	name, err := r.ReadString()
	if err != nil {
		return VMFunction{}, err
	}
	registerFileSize, err := r.ReadUint64()
	if err != nil {
		return VMFunction{}, err
	}
	numInstructions, err := r.ReadUint64()
	if err != nil {
		return VMFunction{}, err
	}
	params, err := r.ReadVecString()
	if err != nil {
		return VMFunction{}, err
	}
	// A minimal instruction record costs 16 bytes on the wire (opcode u64
	// plus field_count u64), so bound the count against what could
	// possibly remain before allocating the slice. Divide rather than
	// multiply numInstructions by 16 to avoid overflow on an adversarial
	// huge count.
	if numInstructions > 0 && numInstructions > uint64(r.Remaining())/16 {
		return VMFunction{}, ravmerr.ErrTruncatedStream
	}
	instructions := make([]Instruction, numInstructions)
	for i := range instructions {
		instr, err := DecodeInstruction(r)
		if err != nil {
			return VMFunction{}, err
		}
		instructions[i] = instr
	}
	return VMFunction{
		Name:             name,
		Params:           params,
		RegisterFileSize: registerFileSize,
		Instructions:     instructions,
	}, nil
}

// ContentHash returns a 128-bit xxh3 digest of the function's encoded
// form. It is a debugging/integrity aid surfaced through Stats (disassembly
// does not print it), not a structural check the decoder enforces.
func (f VMFunction) ContentHash() [16]byte {
	w := NewWriter()
	EncodeFunction(w, f)
	sum := xxh3.Hash128(w.Bytes())
	return sum.Bytes()
}

// Disassemble renders fn as a function-header line followed by one
// numbered line per instruction, matching §4.C's disassembly contract.
func (f VMFunction) Disassemble() string {
	var sb strings.Builder
	sb.WriteString(disasmHeader(f))
	for i, instr := range f.Instructions {
		sb.WriteString(Disassemble(i, instr))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func disasmHeader(f VMFunction) string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	sb.WriteString(strings.Join(f.Params, ", "))
	sb.WriteString(")\n# reg file size = ")
	sb.WriteString(strconv.FormatUint(f.RegisterFileSize, 10))
	sb.WriteString("\n# instruction count = ")
	sb.WriteString(strconv.Itoa(len(f.Instructions)))
	sb.WriteByte('\n')
	return sb.String()
}
