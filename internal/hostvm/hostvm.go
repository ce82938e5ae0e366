// Package hostvm defines the host-side bytecode model that the DEX
// translator lowers into: a stack machine rather than Dalvik's register
// machine, since no JVM or Android runtime is reachable from a Go process.
// The package defines the instruction set and class model only: it holds no
// interpreter, and no real class files are emitted for an external verifier
// (see DESIGN.md).
package hostvm

import "fmt"

// Op is one host-VM instruction's opcode.
type Op uint8

const (
	OpNop Op = iota
	OpLoadLocal
	OpStoreLocal
	OpPushConst
	OpPop
	OpDup
	OpInvokeStatic
	OpInvokeVirtual
	OpInvokeInterface
	OpInvokeSpecial
	OpGetField
	OpPutField
	OpGetStatic
	OpPutStatic
	OpNew
	OpNewArray
	OpArrayLoad
	OpArrayStore
	OpArrayLength
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpNeg
	OpCompare
	OpGoto
	OpIfTrue
	OpIfFalse
	OpReturn
	OpReturnVoid
	OpThrow
	OpMonitorEnter // no-op: single-threaded cooperative model
	OpMonitorExit  // no-op
	OpCheckCast
	OpInstanceOf
)

func (o Op) String() string {
	names := [...]string{
		"nop", "loadlocal", "storelocal", "pushconst", "pop", "dup",
		"invokestatic", "invokevirtual", "invokeinterface", "invokespecial",
		"getfield", "putfield", "getstatic", "putstatic",
		"new", "newarray", "arrayload", "arraystore", "arraylength",
		"add", "sub", "mul", "div", "rem", "neg", "compare",
		"goto", "iftrue", "iffalse", "return", "returnvoid", "throw",
		"monitorenter", "monitorexit", "checkcast", "instanceof",
	}
	if int(o) < len(names) {
		return names[o]
	}
	return fmt.Sprintf("op(%d)", o)
}

// Instr is one host-VM instruction: an opcode plus at most two operands,
// whose meaning depends on the opcode (a local slot index, a constant-pool
// index, a branch target, or an invocation target).
type Instr struct {
	Op   Op
	A, B int
	Ref  string // symbolic operand: constant value key, method/field/type name
}

// ExceptionHandler is one compiled try/catch range: instructions in
// [Start, End) whose thrown exception is assignable to TypeName (empty
// means catch-all) transfer control to Handler.
type ExceptionHandler struct {
	Start, End, Handler int
	TypeName            string
}

// Method is one translated method body. Native and abstract methods carry a
// nil Code. MaxStack/MaxLocals are computed by a single forward scan over
// Code rather than full stack-map-frame verification, which has proven
// fragile against rewritten code (see DESIGN.md).
type Method struct {
	Name        string
	Descriptor  string
	AccessFlags uint32
	Code        []Instr
	Handlers    []ExceptionHandler
	MaxStack    int
	MaxLocals   int
}

// IsNative reports whether this method has no translated body.
func (m *Method) IsNative() bool { return m.Code == nil }

// Field is one translated field declaration.
type Field struct {
	Name        string
	Descriptor  string
	AccessFlags uint32
}

// Class is one translated, host-ready class unit: the translator's output
// before the class-reference rewriter runs, and the rewriter's output
// after.
type Class struct {
	Name       string
	SuperName  string
	Interfaces []string
	Fields     []Field
	Methods    []Method
}

// ComputeMaxes performs the single forward scan that derives MaxStack and
// MaxLocals for m.Code, tracking stack depth through pushes/pops implied by
// each opcode and the highest local slot referenced. It assumes well-formed
// input (every branch target in range); it does not reconcile divergent
// stack depths across merge points the way a real verifier would.
func (m *Method) ComputeMaxes() {
	depth, maxDepth, maxLocal := 0, 0, 0
	apply := func(delta int) {
		depth += delta
		if depth < 0 {
			depth = 0
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	}
	for _, in := range m.Code {
		switch in.Op {
		case OpLoadLocal:
			apply(1)
			if in.A > maxLocal {
				maxLocal = in.A
			}
		case OpStoreLocal:
			apply(-1)
			if in.A > maxLocal {
				maxLocal = in.A
			}
		case OpPushConst:
			apply(1)
		case OpPop, OpIfTrue, OpIfFalse, OpThrow, OpReturn, OpMonitorEnter, OpMonitorExit:
			apply(-1)
		case OpDup:
			apply(1)
		case OpGetField, OpGetStatic, OpArrayLength, OpInstanceOf, OpCheckCast:
			apply(0)
		case OpPutField:
			apply(-2)
		case OpPutStatic:
			apply(-1)
		case OpNew:
			apply(1)
		case OpNewArray:
			apply(0)
		case OpArrayLoad:
			apply(-1)
		case OpArrayStore:
			apply(-3)
		case OpAdd, OpSub, OpMul, OpDiv, OpRem, OpCompare:
			apply(-1)
		case OpNeg:
			apply(0)
		case OpInvokeStatic, OpInvokeVirtual, OpInvokeInterface, OpInvokeSpecial:
			// A operand carries the argument count (receiver included for
			// virtual/interface/special); B carries 1 if the invocation
			// yields a value, else 0.
			apply(-in.A + in.B)
		case OpGoto, OpReturnVoid, OpNop:
			// no stack effect
		}
	}
	m.MaxStack = maxDepth
	m.MaxLocals = maxLocal + 1
}
