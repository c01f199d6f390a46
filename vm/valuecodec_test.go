package vm

import (
	"reflect"
	"testing"

	"github.com/tensorlang/ravm/pkg/bytecode"
)

func TestCBORValueCodecRoundTrip(t *testing.T) {
	cases := []Value{
		IntValue(42),
		FloatValue(3.5),
		StringValue("hello"),
		BytesValue([]byte{1, 2, 3}),
		TensorMetaValue([]int64{4, 8, 16}, bytecode.DType{Code: 2, Bits: 32, Lanes: 1}),
	}
	codec := NewCBORValueCodec()
	for _, v := range cases {
		w := bytecode.NewWriter()
		if err := codec.EncodeValue(w, v); err != nil {
			t.Fatalf("EncodeValue(%+v): %v", v, err)
		}
		got, err := codec.DecodeValue(bytecode.NewReader(w.Bytes()))
		if err != nil {
			t.Fatalf("DecodeValue: %v", err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, v)
		}
	}
}

// mockStringCodec is the minimal string-keyed ValueCodec the container's
// contract explicitly calls out as injectable in place of the default
// CBOR adapter.
type mockStringCodec struct{}

func (mockStringCodec) EncodeValue(w *bytecode.Writer, v Value) error {
	w.WriteString(v.S)
	return nil
}

func (mockStringCodec) DecodeValue(r *bytecode.Reader) (Value, error) {
	s, err := r.ReadString()
	if err != nil {
		return Value{}, err
	}
	return StringValue(s), nil
}

func TestMockStringCodecSatisfiesInterface(t *testing.T) {
	var _ ValueCodec = mockStringCodec{}
}
