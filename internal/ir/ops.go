package ir

// BinOp is a resolved binary operator. Source-level membership and identity
// tests keep dedicated operators because they render structurally (contains
// lookups, is_none/is_some) rather than as symbol-for-symbol operators.
type BinOp string

const (
	OpAdd      BinOp = "add"
	OpSub      BinOp = "sub"
	OpMul      BinOp = "mul"
	OpDiv      BinOp = "div"
	OpFloorDiv BinOp = "floordiv"
	OpMod      BinOp = "mod"
	OpPow      BinOp = "pow"

	OpEq    BinOp = "eq"
	OpNotEq BinOp = "noteq"
	OpLt    BinOp = "lt"
	OpGt    BinOp = "gt"
	OpLtEq  BinOp = "lteq"
	OpGtEq  BinOp = "gteq"

	OpAnd BinOp = "and"
	OpOr  BinOp = "or"

	OpContains    BinOp = "contains"
	OpNotContains BinOp = "notcontains"

	OpIs    BinOp = "is"
	OpIsNot BinOp = "isnot"

	OpBitAnd BinOp = "bitand"
	OpBitOr  BinOp = "bitor"
	OpBitXor BinOp = "bitxor"
	OpShl    BinOp = "shl"
	OpShr    BinOp = "shr"
)

var binOps = map[string]BinOp{
	"+":      OpAdd,
	"-":      OpSub,
	"*":      OpMul,
	"/":      OpDiv,
	"//":     OpFloorDiv,
	"%":      OpMod,
	"**":     OpPow,
	"==":     OpEq,
	"!=":     OpNotEq,
	"<":      OpLt,
	">":      OpGt,
	"<=":     OpLtEq,
	">=":     OpGtEq,
	"and":    OpAnd,
	"or":     OpOr,
	"in":     OpContains,
	"not in": OpNotContains,
	"is":     OpIs,
	"is not": OpIsNot,
	"&":      OpBitAnd,
	"|":      OpBitOr,
	"^":      OpBitXor,
	"<<":     OpShl,
	">>":     OpShr,
}

// BinOpFor maps a source operator lexeme to its resolved form.
func BinOpFor(lexeme string) (BinOp, bool) {
	op, ok := binOps[lexeme]
	return op, ok
}

// UnaryOp is a resolved unary operator.
type UnaryOp string

const (
	OpNeg    UnaryOp = "neg"
	OpNot    UnaryOp = "not"
	OpBitNot UnaryOp = "bitnot"
	OpPos    UnaryOp = "pos"
)

var unaryOps = map[string]UnaryOp{
	"-":   OpNeg,
	"not": OpNot,
	"~":   OpBitNot,
	"+":   OpPos,
}

// UnaryOpFor maps a source unary operator lexeme to its resolved form.
func UnaryOpFor(lexeme string) (UnaryOp, bool) {
	op, ok := unaryOps[lexeme]
	return op, ok
}

// AugOp is a resolved augmented-assignment operator.
type AugOp string

const (
	AugAdd      AugOp = "add"
	AugSub      AugOp = "sub"
	AugMul      AugOp = "mul"
	AugDiv      AugOp = "div"
	AugFloorDiv AugOp = "floordiv"
	AugMod      AugOp = "mod"
	AugPow      AugOp = "pow"
	AugBitAnd   AugOp = "bitand"
	AugBitOr    AugOp = "bitor"
	AugBitXor   AugOp = "bitxor"
	AugShl      AugOp = "shl"
	AugShr      AugOp = "shr"
)

var augOps = map[string]AugOp{
	"+":  AugAdd,
	"-":  AugSub,
	"*":  AugMul,
	"/":  AugDiv,
	"//": AugFloorDiv,
	"%":  AugMod,
	"**": AugPow,
	"&":  AugBitAnd,
	"|":  AugBitOr,
	"^":  AugBitXor,
	"<<": AugShl,
	">>": AugShr,
}

// AugOpFor maps the operator part of an augmented assignment (without the
// trailing '=') to its resolved form.
func AugOpFor(lexeme string) (AugOp, bool) {
	op, ok := augOps[lexeme]
	return op, ok
}
