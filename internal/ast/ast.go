// Package ast defines the source syntax tree handed to the analyzer.
//
// The node set is closed: literals, operators, calls, indexing and slicing,
// collection literals, assignment, control statements, and function/record
// definitions. The parser owns well-formedness; the analyzer assumes shape
// and checks meaning.
package ast

import "github.com/pylift/pylift/internal/token"

// Node is the base interface for all syntax nodes.
type Node interface {
	GetToken() token.Token
}

// Statement is a node that appears in statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root of every parsed source file.
type Program struct {
	File       string
	Statements []Statement
}

// TypeHint is a source type annotation: a name with optional parameters,
// e.g. list[int], dict[str, float], Optional[int].
type TypeHint struct {
	Token  token.Token
	Name   string
	Params []*TypeHint
}
