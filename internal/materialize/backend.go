package materialize

import (
	"math/big"

	"irkit/internal/ir"
	"irkit/internal/types"
)

// Handles are opaque to the materializer; each backend picks its own
// numbering and only needs to recognise the handles it returned.
type (
	TypeHandle   uint64
	GlobalHandle uint64
	FuncHandle   uint64
	BlockHandle  uint64
)

// Backend consumes a validated module in one batched walk: every type,
// then every global, then every function declaration, then the deferred
// global initializers, then function bodies block by block, then Finish.
// Named structs are declared by name first and given their bodies with
// DefineStruct once all types are declared. A global whose initializer
// refers to a later global or to a function gets it through DefineGlobal
// once every symbol has a handle.
type Backend interface {
	DeclareType(TypeShape) (TypeHandle, error)
	DefineStruct(TypeHandle, StructBody) error
	DeclareGlobal(GlobalDecl) (GlobalHandle, error)
	DeclareFunction(FuncDecl) (FuncHandle, error)
	DefineGlobal(GlobalHandle, Operand) error
	EmitBlock(FuncHandle, BlockBody) (BlockHandle, error)
	Finish() (Artifact, error)
}

// Artifact is whatever a backend produces.
type Artifact interface {
	Kind() string
	Bytes() []byte
}

// TypeShape describes one type in terms of already declared handles.
type TypeShape struct {
	ID        types.TypeID
	Kind      types.Kind
	Text      string // LLVM spelling, e.g. "i32" or "%node"
	Width     uint32
	Elem      TypeHandle // pointee, array element or function result
	Count     uint64
	AddrSpace uint32
	Fields    []TypeHandle // anonymous struct fields or function params
	Name      string       // named structs; the body arrives via DefineStruct
	Packed    bool
	Variadic  bool
}

// StructBody is the body of a named struct. Opaque structs have no fields.
type StructBody struct {
	Fields []TypeHandle
	Packed bool
	Opaque bool
}

// GlobalDecl declares a global variable. Init carries the initializer when
// every symbol it names is already declared; otherwise Deferred is set and
// the initializer follows through DefineGlobal. Both are empty for external
// declarations.
type GlobalDecl struct {
	ID       ir.GlobalID
	Name     string
	Type     TypeHandle // value type
	Init     *Operand
	Deferred bool
	Constant bool
	Linkage  ir.Linkage
	Align    uint32
}

// Param is one function parameter.
type Param struct {
	Name string // unique within the function, empty for unbound params
	Type TypeHandle
}

// FuncDecl declares a function; Declaration is set when it has no body.
type FuncDecl struct {
	ID          ir.FuncID
	Name        string
	Sig         TypeHandle
	Result      TypeHandle
	Params      []Param
	Variadic    bool
	Linkage     ir.Linkage
	CallConv    ir.CallConv
	Declaration bool
}

// OperandKind tags the variant of an Operand.
type OperandKind uint8

const (
	OperandConst OperandKind = iota + 1
	OperandGlobal
	OperandFunc
	OperandParam
	OperandLocal
)

// Operand is a backend-neutral value reference.
type Operand struct {
	Kind   OperandKind
	Type   TypeHandle
	Const  *Const       // OperandConst
	Global GlobalHandle // OperandGlobal
	Func   FuncHandle   // OperandFunc
	Name   string       // OperandParam, OperandLocal and symbol names
	Index  int          // OperandParam position
}

// Const is a constant payload. Integer bits are two's complement in
// [0, 2^width).
type Const struct {
	Kind  ir.ConstKind
	Bits  *big.Int
	Float float64
	Elems []Operand
	Bytes []byte
}

// Label identifies a block of the function being emitted: Index is its
// position in the function and Name its unique label.
type Label struct {
	Index int
	Name  string
}

// Inst is one instruction with operands already translated.
type Inst struct {
	Op       ir.Opcode
	Result   string     // local name, empty when there is no result
	Type     TypeHandle // result type, or the void type
	Extra    TypeHandle // alloca: allocated type; cast: destination; load/GEP: element type; call: signature
	Pred     ir.Predicate
	Operands []Operand
	Targets  []Label
}

// BlockBody is one basic block.
type BlockBody struct {
	Label Label
	Insts []Inst
}

// Signed interprets integer bits of the given width as a signed value.
func (c *Const) Signed(width uint32) *big.Int {
	v := new(big.Int).Set(c.Bits)
	if width > 0 && v.Bit(int(width)-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(width)))
	}
	return v
}
