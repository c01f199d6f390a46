// Package vm implements the executable container that packages compiled
// VMFunctions, their constant pool, and the global/primitive name maps
// into a single serializable unit, plus the Save/Load codec that persists
// it to and from a byte stream.
package vm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tliron/commonlog"

	ravmerr "github.com/tensorlang/ravm/errors"
	"github.com/tensorlang/ravm/pkg/bytecode"
)

const flagCompressed byte = 1 << 0

// Executable is a loaded or in-memory-built VM program: a function table
// indexed by global index, the name→index map that owns that indexing, a
// constant pool, the primitive-op name map, and the opaque host module
// handed in at load time. Apart from the With* setters, which modify the
// receiver in place, no method on Executable mutates it, so concurrent
// interpreter reads never need to synchronize against Save/Load.
type Executable struct {
	functions    []bytecode.VMFunction
	globalMap    map[string]int64
	constants    []Value
	primitiveMap map[string]int64
	hostModule   HostModule

	codec  ValueCodec
	config *Config
	log    commonlog.Logger
}

// NewExecutable builds an in-memory executable from its parts, ready to be
// passed to Save. functions must be indexed exactly as globalMap
// prescribes: functions[globalMap[name]].Name == name for every name.
func NewExecutable(functions []bytecode.VMFunction, globalMap map[string]int64, constants []Value, primitiveMap map[string]int64, hostModule HostModule) *Executable {
	return &Executable{
		functions:    functions,
		globalMap:    globalMap,
		constants:    constants,
		primitiveMap: primitiveMap,
		hostModule:   hostModule,
		codec:        NewCBORValueCodec(),
		config:       DefaultConfig(),
	}
}

// WithLogger attaches a commonlog.Logger used for Debug/Info/Warning
// diagnostics during Save/Load and introspection. Optional; a nil logger
// (the default) falls back to commonlog's named logger lookup.
func (e *Executable) WithLogger(l commonlog.Logger) *Executable {
	e.log = l
	return e
}

// WithConfig overrides the magic/version/compression settings Save writes
// and Load checks. Optional; DefaultConfig is used otherwise.
func (e *Executable) WithConfig(cfg *Config) *Executable {
	e.config = cfg
	return e
}

// WithValueCodec overrides the ValueCodec used to encode/decode the
// constant pool. Optional; NewCBORValueCodec is used otherwise.
func (e *Executable) WithValueCodec(codec ValueCodec) *Executable {
	e.codec = codec
	return e
}

// Functions returns the read-only function table, indexed by global index.
func (e *Executable) Functions() []bytecode.VMFunction { return e.functions }

// GlobalMap returns the read-only function name→index map.
func (e *Executable) GlobalMap() map[string]int64 { return e.globalMap }

// Constants returns the read-only constant pool.
func (e *Executable) Constants() []Value { return e.constants }

// PrimitiveMap returns the read-only primitive name→packed-index map.
func (e *Executable) PrimitiveMap() map[string]int64 { return e.primitiveMap }

// HostModule returns the opaque host module this executable was loaded
// with, or nil if none was provided.
func (e *Executable) HostModule() HostModule { return e.hostModule }

// Save serializes e to bytes in the fixed section order: header, globals,
// constants, primitives, code. The returned slice is freshly allocated on
// every call — callers may mutate or retain it freely.
func (e *Executable) Save() ([]byte, error) {
	log := logger(e.log)
	cfg := e.config
	if cfg == nil {
		cfg = DefaultConfig()
	}

	flags := byte(0)
	if cfg.AllowCompression {
		flags |= flagCompressed
	}

	w := bytecode.NewWriter()
	w.WriteRaw(cfg.Magic[:])
	w.WriteString(cfg.RuntimeVersion)
	w.WriteRaw([]byte{flags})

	names := make([]string, len(e.globalMap))
	seen := make([]bool, len(e.globalMap))
	for name, idx := range e.globalMap {
		if idx < 0 || int(idx) >= len(names) {
			return nil, fmt.Errorf("ravm: save: %w: global %q has out-of-range index %d", ravmerr.ErrMalformedSection, name, idx)
		}
		names[idx] = name
		seen[idx] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("ravm: save: %w: global index %d has no name", ravmerr.ErrMalformedSection, i)
		}
	}
	w.WriteVecString(names)
	log.Debugf("ravm: wrote %d globals", len(names))

	w.WriteUint64(uint64(len(e.constants)))
	codec := e.codec
	if codec == nil {
		codec = NewCBORValueCodec()
	}
	for i, c := range e.constants {
		if err := codec.EncodeValue(w, c); err != nil {
			return nil, fmt.Errorf("ravm: save: constant %d: %w", i, err)
		}
	}
	log.Debugf("ravm: wrote %d constants", len(e.constants))

	primNames := make([]string, len(e.primitiveMap))
	primSeen := make([]bool, len(e.primitiveMap))
	for name, idx := range e.primitiveMap {
		if idx < 0 || int(idx) >= len(primNames) {
			return nil, fmt.Errorf("ravm: save: %w: primitive %q has out-of-range index %d", ravmerr.ErrMalformedSection, name, idx)
		}
		primNames[idx] = name
		primSeen[idx] = true
	}
	for i, ok := range primSeen {
		if !ok {
			return nil, fmt.Errorf("ravm: save: %w: primitive index %d has no name", ravmerr.ErrMalformedSection, i)
		}
	}
	w.WriteVecString(primNames)
	log.Debugf("ravm: wrote %d primitives", len(primNames))

	codeW := bytecode.NewWriter()
	codeW.WriteUint64(uint64(len(e.functions)))
	for _, fn := range e.functions {
		bytecode.EncodeFunction(codeW, fn)
	}
	codeBytes := codeW.Bytes()

	if cfg.AllowCompression {
		compressed, err := compressCodeSection(codeBytes)
		if err != nil {
			return nil, err
		}
		codeBytes = compressed
	}
	w.WriteUint64(uint64(len(codeBytes)))
	w.WriteRaw(codeBytes)
	log.Debugf("ravm: wrote %d functions (%d code bytes, compressed=%v)", len(e.functions), len(codeBytes), flags&flagCompressed != 0)

	out := w.Bytes()
	log.Infof("ravm: save complete: %d bytes", len(out))
	return append([]byte(nil), out...), nil
}

// Load parses a byte stream produced by Save (or a compatible writer)
// into an Executable, wiring in hostModule verbatim. cfg selects the
// magic/version pair to require; pass nil for DefaultConfig.
func Load(data []byte, hostModule HostModule, cfg *Config) (*Executable, error) {
	return LoadWithLogger(data, hostModule, cfg, nil)
}

// LoadWithLogger is Load with an explicit logger attached to the returned
// Executable and used for its own Debug/Info diagnostics.
func LoadWithLogger(data []byte, hostModule HostModule, cfg *Config, log commonlog.Logger) (*Executable, error) {
	return LoadWithCodec(data, hostModule, cfg, nil, log)
}

// LoadWithCodec is Load with an explicit ValueCodec for decoding the
// constant pool — the hook for injecting another codec, such as a minimal
// string-keyed mock, instead of the default CBOR codec, per the ValueCodec
// collaborator contract. A nil codec falls back to NewCBORValueCodec.
func LoadWithCodec(data []byte, hostModule HostModule, cfg *Config, valueCodec ValueCodec, log commonlog.Logger) (*Executable, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if valueCodec == nil {
		valueCodec = NewCBORValueCodec()
	}
	lg := logger(log)

	r := bytecode.NewReader(data)

	magic, err := r.ReadRaw(len(cfg.Magic))
	if err != nil {
		return nil, fmt.Errorf("ravm: load: header: %w", err)
	}
	for i, b := range magic {
		if b != cfg.Magic[i] {
			return nil, ravmerr.ErrBadMagic
		}
	}

	version, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("ravm: load: header: %w", err)
	}
	if version != cfg.RuntimeVersion {
		return nil, &ravmerr.VersionMismatchError{Expected: cfg.RuntimeVersion, Found: version}
	}

	flagsBuf, err := r.ReadRaw(1)
	if err != nil {
		return nil, fmt.Errorf("ravm: load: header: %w", err)
	}
	flags := flagsBuf[0]

	globalNames, err := r.ReadVecString()
	if err != nil {
		return nil, fmt.Errorf("ravm: load: %w: globals: %v", ravmerr.ErrMalformedSection, err)
	}
	globalMap := make(map[string]int64, len(globalNames))
	for i, name := range globalNames {
		globalMap[name] = int64(i)
	}
	lg.Debugf("ravm: read %d globals", len(globalNames))

	constCount, err := r.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("ravm: load: %w: constants: %v", ravmerr.ErrMalformedSection, err)
	}
	// Each constant costs at least 8 bytes on the wire (its own length
	// prefix), so bound the count against what could possibly remain
	// before allocating the slice. Divide rather than multiply constCount
	// by 8 to avoid overflow on an adversarial huge count.
	if constCount > 0 && constCount > uint64(r.Remaining())/8 {
		return nil, ravmerr.ErrTruncatedStream
	}
	constants := make([]Value, constCount)
	for i := range constants {
		v, err := valueCodec.DecodeValue(r)
		if err != nil {
			return nil, fmt.Errorf("ravm: load: %w: constant %d: %v", ravmerr.ErrMalformedSection, i, err)
		}
		constants[i] = v
	}
	lg.Debugf("ravm: read %d constants", constCount)

	primNames, err := r.ReadVecString()
	if err != nil {
		return nil, fmt.Errorf("ravm: load: %w: primitives: %v", ravmerr.ErrMalformedSection, err)
	}
	primitiveMap := make(map[string]int64, len(primNames))
	for i, name := range primNames {
		primitiveMap[name] = int64(i)
	}
	lg.Debugf("ravm: read %d primitives", len(primNames))

	codeLen, err := r.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("ravm: load: %w: code: %v", ravmerr.ErrMalformedSection, err)
	}
	if codeLen > uint64(r.Remaining()) {
		return nil, ravmerr.ErrTruncatedStream
	}
	codeBytes, err := r.ReadRaw(int(codeLen))
	if err != nil {
		return nil, fmt.Errorf("ravm: load: %w: code: %v", ravmerr.ErrMalformedSection, err)
	}
	if flags&flagCompressed != 0 {
		codeBytes, err = decompressCodeSection(codeBytes)
		if err != nil {
			return nil, fmt.Errorf("ravm: load: %w: code: %w", ravmerr.ErrMalformedSection, err)
		}
	}

	codeR := bytecode.NewReader(codeBytes)
	fnCount, err := codeR.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("ravm: load: %w: code: %v", ravmerr.ErrMalformedSection, err)
	}

	functions := make([]bytecode.VMFunction, len(globalMap))
	filled := make([]bool, len(globalMap))
	for i := uint64(0); i < fnCount; i++ {
		fn, err := bytecode.DecodeFunction(codeR)
		if err != nil {
			return nil, fmt.Errorf("ravm: load: code: function %d: %w", i, err)
		}
		idx, ok := globalMap[fn.Name]
		if !ok {
			return nil, &ravmerr.DanglingFunctionError{Name: fn.Name}
		}
		functions[idx] = fn
		filled[idx] = true
	}
	for i, ok := range filled {
		if !ok {
			return nil, &ravmerr.MissingFunctionError{Index: i}
		}
	}
	lg.Debugf("ravm: read %d functions", len(functions))

	exe := &Executable{
		functions:    functions,
		globalMap:    globalMap,
		constants:    constants,
		primitiveMap: primitiveMap,
		hostModule:   hostModule,
		codec:        valueCodec,
		config:       cfg,
		log:          log,
	}
	lg.Infof("ravm: load complete: %d functions, %d constants, %d primitives", len(functions), len(constants), len(primitiveMap))
	return exe, nil
}

// GetFunctionArity returns the number of parameters name's function
// declares, or -1 if name is not a known function. It never aborts the
// process — per the introspection error policy, a bad name logs a warning
// and returns the sentinel value.
func (e *Executable) GetFunctionArity(name string) int {
	idx, ok := e.globalMap[name]
	if !ok {
		logger(e.log).Warningf("ravm: GetFunctionArity: unknown function %q", name)
		return -1
	}
	return e.functions[idx].Arity()
}

// GetFunctionParameterName returns the name of parameter index of
// function name, or "" if name is unknown or index is out of range.
func (e *Executable) GetFunctionParameterName(name string, index int) string {
	idx, ok := e.globalMap[name]
	if !ok {
		logger(e.log).Warningf("ravm: GetFunctionParameterName: unknown function %q", name)
		return ""
	}
	params := e.functions[idx].Params
	if index < 0 || index >= len(params) {
		logger(e.log).Warningf("ravm: GetFunctionParameterName: %q has no parameter %d", name, index)
		return ""
	}
	return params[index]
}

// GetBytecode returns a human-readable disassembly of every function, in
// global-index order.
func (e *Executable) GetBytecode() string {
	var sb strings.Builder
	for _, fn := range e.functions {
		sb.WriteString(fn.Disassemble())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Stats returns a human-readable summary of the executable's shape: a
// digest of its serialized form, then counts of functions, constants, and
// primitives, listing each function's name, arity and content hash, each
// constant's kind, and each primitive's name.
func (e *Executable) Stats() string {
	var sb strings.Builder
	if data, err := e.Save(); err == nil {
		fmt.Fprintf(&sb, "digest: %s\n", executableDigest(data))
	}
	fmt.Fprintf(&sb, "functions: %d\n", len(e.functions))
	names := make([]string, 0, len(e.globalMap))
	for name := range e.globalMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		idx := e.globalMap[name]
		hash := e.functions[idx].ContentHash()
		fmt.Fprintf(&sb, "  [%d] %s/%d %s\n", idx, name, e.functions[idx].Arity(), digestHex(hash))
	}
	fmt.Fprintf(&sb, "constants: %d\n", len(e.constants))
	for i, c := range e.constants {
		fmt.Fprintf(&sb, "  [%d] %s\n", i, c.Kind)
	}
	fmt.Fprintf(&sb, "primitives: %d\n", len(e.primitiveMap))
	primNames := make([]string, len(e.primitiveMap))
	for name, idx := range e.primitiveMap {
		if int(idx) < len(primNames) {
			primNames[idx] = name
		}
	}
	for i, name := range primNames {
		fmt.Fprintf(&sb, "  [%d] %s\n", i, name)
	}
	return sb.String()
}
