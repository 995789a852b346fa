// Package ast defines the CSML abstract syntax tree: the Expr tagged union,
// the Flow container, and the instruction-scope addressing used to look up
// a step or function body inside a parsed flow.
//
// Expr is a closed, deeply recursive tagged union. Every concrete node
// carries its own [token.Interval] for positioned error reporting; the
// grammar forbids cycles, so the tree is acyclic by construction.
package ast

import "github.com/csml-lang/interpreter/pkg/token"

// Expr is implemented by every AST expression/statement node.
type Expr interface {
	// Interval returns the source range of this node.
	Interval() token.Interval
	exprNode()
}

// Node embeds a token.Interval and is embedded by every concrete Expr to
// satisfy the Interval() method without repeating it everywhere.
type Node struct {
	Pos token.Interval
}

// Interval returns the node's source range.
func (n Node) Interval() token.Interval { return n.Pos }

func (Node) exprNode() {}

// IdentExpr references a named value: a local variable, a step_vars entry,
// a persistent memory key, or metadata, resolved at evaluation time in that
// order.
type IdentExpr struct {
	Node
	Name string
}

// LitKind identifies the primitive kind carried by a [LitExpr].
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
	LitNull
)

// LitExpr is a literal constant: an integer, float, bool, plain string, or
// null appearing directly in source.
type LitExpr struct {
	Node
	Kind   LitKind
	Int    int64
	Float  float64
	Bool   bool
	String string
}

// VecExpr is an array literal: `(a, b, c)` or `[a, b, c]`.
type VecExpr struct {
	Node
	Items []Expr
}

// MapExpr is an object literal built from named entries.
type MapExpr struct {
	Node
	Names  []string // preserves declaration order
	Values map[string]Expr
}

// ComplexLiteral is a string literal containing one or more `{{ expr }}`
// splices. Segments alternate between literal text (LitExpr of kind
// LitString) and spliced expressions in source order; joining the string
// coercion of every segment in order reconstructs the interpolated string.
type ComplexLiteral struct {
	Node
	Segments []Expr
}

// PathState is one step of a path access chain (`a.b.c`, `a.b()`, `a[0]`).
type PathState interface {
	pathState()
}

// FieldAccess reads a named field from an Object value.
type FieldAccess struct {
	Pos  token.Interval
	Name string
}

func (FieldAccess) pathState() {}

// IndexAccess reads a positional element from an Array value.
type IndexAccess struct {
	Pos   token.Interval
	Index Expr
}

func (IndexAccess) pathState() {}

// MethodCall invokes a built-in method on the value produced so far in the
// path (e.g. `.length()`, `.contains(x)`).
type MethodCall struct {
	Pos  token.Interval
	Name string
	Args ArgList
}

func (MethodCall) pathState() {}

// PathStep pairs a PathState with its own source interval, as required by
// spec.md's PathExpr shape (`path: [(Interval, PathState)]`).
type PathStep struct {
	Pos   token.Interval
	State PathState
}

// PathExpr evaluates Root and then applies each step in Path in order.
// An empty Path makes PathExpr equivalent to evaluating Root alone.
type PathExpr struct {
	Node
	Root Expr
	Path []PathStep
}

// ArgKind distinguishes positional from named argument lists.
type ArgKind int

const (
	ArgsNormal ArgKind = iota // ordered positional arguments
	ArgsNamed                 // name=value arguments
)

// Arg is a single argument: Name is empty for a positional argument.
type Arg struct {
	Name  string
	Value Expr
	Pos   token.Interval
}

// ArgList is the argument list of a call, tagged with how it was written.
// Per spec.md's tightened binding rule, the FIRST positional argument
// appearing after any named argument is a parse-time ArgBindingError; a
// well-formed ArgList therefore has all-positional args before any named
// ones.
type ArgList struct {
	Kind ArgKind
	Args []Arg
}

// ObjectKind distinguishes the three forms an ObjectExpr may take.
type ObjectKind int

const (
	ObjectNormal ObjectKind = iota // name(args...)
	ObjectAssign                   // name = expr
	ObjectAs                       // expr as name
)

// ObjectExpr represents one call-like construct: a plain function/builtin
// call (Normal; the parser does not produce this form), a statement-level
// local assignment `name = expr` (Assign), or a result rebinding (As).
// Named arguments inside a call's argument list are [Arg] values, not
// ObjectExprs.
type ObjectExpr struct {
	Node
	Kind ObjectKind
	Name string
	Args ArgList // valid when Kind == ObjectNormal
	Expr Expr    // valid when Kind == ObjectAssign or ObjectAs
}

// ScopeKind identifies what kind of block a Scope node wraps.
type ScopeKind int

const (
	ScopeIf ScopeKind = iota
	ScopeBlock
	ScopeFunction
)

// Scope is a brace-delimited block of statements, e.g. an `if` consequence
// or a function body.
type Scope struct {
	Node
	Kind  ScopeKind
	Block []Expr
}

// IfExpr evaluates Cond; if truthy, it evaluates Consequence and returns
// control to the caller (the evaluator recurses into the block inline,
// it does not push a new instruction scope).
type IfExpr struct {
	Node
	Cond        Expr
	Consequence Scope
}

// RememberExpr promotes Value into persistent per-conversation memory under
// Name. Scope-local (step_vars) writes never use this node.
type RememberExpr struct {
	Node
	Name  string
	Value Expr
}

// GotoExpr is a goto to a step in the current flow or to another flow, by
// name; the evaluator resolves which at run time.
type GotoExpr struct {
	Node
	Target string
}

// ReservedExpr is a call to one of the lexer-level reserved function names
// (say/ask/retry/import) with a single positional-or-vec argument, per the
// grammar's `reserved := RESERVED_FUNC (block | call_group | var_expr)`.
type ReservedExpr struct {
	Node
	Func string
	Arg  Expr // nil for a bare "retry"-style call with no argument
}

// ActionExpr is a statement-level call `name(args...)`: a native component,
// a builtin (Text, Image, Button, Question, ..., `hold`/`use`/`extension`),
// or a user-defined or imported function, resolved by the evaluator.
type ActionExpr struct {
	Node
	Builtin string
	Args    ArgList
}

// FunctionExpr is a call written in expression position: it invokes a
// native component, builtin, or user-defined or imported function by name
// with a single argument expression (which may itself be a VecExpr carrying
// several positional values, matching the grammar's `fn_call`).
type FunctionExpr struct {
	Node
	Name string
	Arg  Expr
}

// BuilderExpr is `left.right`, the generic dot-chain production used before
// path resolution narrows it to field/index/method access.
type BuilderExpr struct {
	Node
	Left  Expr
	Right Expr
}

// InfixExpr is a binary comparison or boolean combination.
type InfixOp int

const (
	OpEq InfixOp = iota
	OpGt
	OpLt
	OpGtEq
	OpLtEq
	OpAnd
	OpOr
)

type InfixExpr struct {
	Node
	Op    InfixOp
	Left  Expr
	Right Expr
}

// EmptyExpr is a no-op placeholder, used for an empty `{{ }}` splice. A bare
// ReservedFunc call with no argument has a nil Arg instead.
type EmptyExpr struct {
	Node
}

// NewNode constructs the embeddable Node for an AST node at the given
// interval.
func NewNode(iv token.Interval) Node { return Node{Pos: iv} }
