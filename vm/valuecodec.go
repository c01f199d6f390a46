package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	ravmerr "github.com/tensorlang/ravm/errors"
	"github.com/tensorlang/ravm/pkg/bytecode"
)

// ValueCodec encodes and decodes constant-pool entries. The container never
// interprets a constant's payload itself — it only knows how many bytes the
// codec consumed, so any host-defined value representation (tensors,
// scalars, opaque blobs) can sit in the constant pool without this package
// needing to know its shape. Load does bound the constant count by assuming
// every encoded value takes at least 8 bytes, so a codec that encodes
// values in fewer bytes than that can fail Load with ErrTruncatedStream.
type ValueCodec interface {
	// EncodeValue appends v's wire representation to w.
	EncodeValue(w *bytecode.Writer, v Value) error
	// DecodeValue reads one value from r.
	DecodeValue(r *bytecode.Reader) (Value, error)
}

// Value is a constant-pool entry. The zero Value (Kind ValueKindNone) is
// invalid and none of the constructors below produce it; CBORValueCodec
// does not reject it, and encodes and decodes it like any other Value.
type Value struct {
	Kind  ValueKind
	I     int64       // ValueKindInt
	F     float64     // ValueKindFloat
	S     string      // ValueKindString
	Bytes []byte      // ValueKindBytes
	Shape []int64     // ValueKindTensorMeta
	DType bytecode.DType
}

// ValueKind discriminates the payload carried by a Value.
type ValueKind uint8

const (
	ValueKindNone ValueKind = iota
	ValueKindInt
	ValueKindFloat
	ValueKindString
	ValueKindBytes
	ValueKindTensorMeta
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindInt:
		return "int"
	case ValueKindFloat:
		return "float"
	case ValueKindString:
		return "string"
	case ValueKindBytes:
		return "bytes"
	case ValueKindTensorMeta:
		return "tensor_meta"
	default:
		return "none"
	}
}

// IntValue builds an integer constant.
func IntValue(i int64) Value { return Value{Kind: ValueKindInt, I: i} }

// FloatValue builds a floating-point constant.
func FloatValue(f float64) Value { return Value{Kind: ValueKindFloat, F: f} }

// StringValue builds a string constant.
func StringValue(s string) Value { return Value{Kind: ValueKindString, S: s} }

// BytesValue builds an opaque byte-blob constant.
func BytesValue(b []byte) Value { return Value{Kind: ValueKindBytes, Bytes: b} }

// TensorMetaValue builds a constant describing a tensor's shape and element
// type without any backing data — used for compile-time-known tensor
// literals whose storage is allocated at load time.
func TensorMetaValue(shape []int64, dtype bytecode.DType) Value {
	return Value{Kind: ValueKindTensorMeta, Shape: shape, DType: dtype}
}

// cborValue mirrors Value in a form the cbor package can marshal directly;
// Value itself is left free of struct tags so it stays a plain domain type.
type cborValue struct {
	Kind  ValueKind      `cbor:"1,keyasint"`
	I     int64          `cbor:"2,keyasint,omitempty"`
	F     float64        `cbor:"3,keyasint,omitempty"`
	S     string         `cbor:"4,keyasint,omitempty"`
	Bytes []byte         `cbor:"5,keyasint,omitempty"`
	Shape []int64        `cbor:"6,keyasint,omitempty"`
	Code  int64          `cbor:"7,keyasint,omitempty"`
	Bits  int64          `cbor:"8,keyasint,omitempty"`
	Lanes int64          `cbor:"9,keyasint,omitempty"`
}

// CBORValueCodec is the default ValueCodec, encoding each constant as a
// length-prefixed CBOR map. It is deterministic (cbor.CanonicalEncOptions)
// so re-saving an unchanged executable reproduces the same constant-section
// bytes.
type CBORValueCodec struct {
	encMode cbor.EncMode
}

// NewCBORValueCodec builds a CBORValueCodec using canonical (deterministic)
// encoding options.
func NewCBORValueCodec() *CBORValueCodec {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		// CanonicalEncOptions is a fixed, known-good option set; EncMode
		// only fails on invalid options.
		panic(fmt.Sprintf("ravm: invalid cbor encoding options: %v", err))
	}
	return &CBORValueCodec{encMode: mode}
}

// EncodeValue writes v as a u64 length prefix followed by its canonical
// CBOR encoding.
func (c *CBORValueCodec) EncodeValue(w *bytecode.Writer, v Value) error {
	cv := cborValue{
		Kind:  v.Kind,
		I:     v.I,
		F:     v.F,
		S:     v.S,
		Bytes: v.Bytes,
		Shape: v.Shape,
	}
	if v.Kind == ValueKindTensorMeta {
		cv.Code, cv.Bits, cv.Lanes = v.DType.Code, v.DType.Bits, v.DType.Lanes
	}
	data, err := c.encMode.Marshal(cv)
	if err != nil {
		return fmt.Errorf("ravm: encode constant: %w", err)
	}
	w.WriteUint64(uint64(len(data)))
	w.WriteRaw(data)
	return nil
}

// DecodeValue reads one CBOR-encoded value written by EncodeValue.
func (c *CBORValueCodec) DecodeValue(r *bytecode.Reader) (Value, error) {
	n, err := r.ReadUint64()
	if err != nil {
		return Value{}, err
	}
	if n > 0 && n > uint64(r.Remaining()) {
		return Value{}, fmt.Errorf("ravm: decode constant: %w", ravmerr.ErrTruncatedStream)
	}
	data, err := r.ReadRaw(int(n))
	if err != nil {
		return Value{}, err
	}
	var cv cborValue
	if err := cbor.Unmarshal(data, &cv); err != nil {
		return Value{}, fmt.Errorf("ravm: decode constant: %w", err)
	}
	v := Value{
		Kind:  cv.Kind,
		I:     cv.I,
		F:     cv.F,
		S:     cv.S,
		Bytes: cv.Bytes,
		Shape: cv.Shape,
	}
	if cv.Kind == ValueKindTensorMeta {
		v.DType = bytecode.DType{Code: cv.Code, Bits: cv.Bits, Lanes: cv.Lanes}
	}
	return v, nil
}
