package analyzer

import (
	"github.com/pylift/pylift/internal/token"
	"github.com/pylift/pylift/internal/typesystem"
)

type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeBlock
)

// Binding is one named storage location. It is owned by the scope that
// declares it; inference refines Ty, the ownership pass sets Mutable.
type Binding struct {
	Name       string
	Ty         typesystem.Type
	Mutable    bool
	Reassigned bool
	Reads      int
	DeclTok    token.Token
	ScopeID    int
	IsParam    bool
	Hinted     bool
	// Hoisted marks a binding promoted from block scope to function scope
	// as an optionally-absent slot.
	Hoisted bool
}

// Scope is one lexical region. Scopes form a tree that outlives analysis:
// lowering reads it back to decide which bindings hoist.
type Scope struct {
	id       int
	kind     scopeKind
	parent   *Scope
	children []*Scope
	bindings map[string]*Binding
	order    []string
	// narrowed overlays binding types inside a conditional branch; it never
	// escapes the branch that installed it.
	narrowed map[string]typesystem.Type
}

func (s *Scope) lookupLocal(name string) (*Binding, bool) {
	b, ok := s.bindings[name]
	return b, ok
}

// ScopeStack tracks the current lexical position during a walk. Exited
// scopes stay attached to the tree; exitedBlocks additionally remembers the
// block scopes of the current function so reads past a branch or loop can
// find the bindings to hoist.
type ScopeStack struct {
	root   *Scope
	cur    *Scope
	nextID int
	// block scopes popped since the current function was entered
	exitedBlocks []*Scope
}

func NewScopeStack() *ScopeStack {
	root := &Scope{id: 0, kind: scopeModule, bindings: make(map[string]*Binding)}
	return &ScopeStack{root: root, cur: root, nextID: 1}
}

func (st *ScopeStack) Root() *Scope    { return st.root }
func (st *ScopeStack) Current() *Scope { return st.cur }

func (st *ScopeStack) enter(kind scopeKind) *Scope {
	s := &Scope{
		id:       st.nextID,
		kind:     kind,
		parent:   st.cur,
		bindings: make(map[string]*Binding),
	}
	st.nextID++
	st.cur.children = append(st.cur.children, s)
	st.cur = s
	if kind == scopeFunction {
		st.exitedBlocks = nil
	}
	return s
}

// EnterFunction brackets a function body.
func (st *ScopeStack) EnterFunction() *Scope { return st.enter(scopeFunction) }

// EnterBlock brackets a conditional or loop body.
func (st *ScopeStack) EnterBlock() *Scope { return st.enter(scopeBlock) }

// Exit pops the current scope. Block scopes are remembered for hoist
// lookups until their function is exited.
func (st *ScopeStack) Exit() {
	if st.cur.parent == nil {
		return
	}
	if st.cur.kind == scopeBlock {
		st.exitedBlocks = append(st.exitedBlocks, st.cur)
	} else if st.cur.kind == scopeFunction {
		st.exitedBlocks = nil
	}
	st.cur = st.cur.parent
}

// Declare adds a binding to the current scope. It reports false if the name
// is already declared in this same scope; shadowing an outer scope is fine.
func (st *ScopeStack) Declare(name string, ty typesystem.Type, mutable bool, tok token.Token) (*Binding, bool) {
	if existing, dup := st.cur.bindings[name]; dup {
		return existing, false
	}
	b := &Binding{
		Name:    name,
		Ty:      ty,
		Mutable: mutable,
		DeclTok: tok,
		ScopeID: st.cur.id,
	}
	st.cur.bindings[name] = b
	st.cur.order = append(st.cur.order, name)
	return b, true
}

// Lookup walks outward from the innermost scope. A narrowing overlay on any
// scope along the way overrides the binding's stored type.
func (st *ScopeStack) Lookup(name string) (*Binding, typesystem.Type, bool) {
	for s := st.cur; s != nil; s = s.parent {
		if ty, ok := s.narrowed[name]; ok {
			if b := st.findBinding(name, s); b != nil {
				return b, ty, true
			}
		}
		if b, ok := s.lookupLocal(name); ok {
			return b, b.Ty, true
		}
	}
	return nil, nil, false
}

func (st *ScopeStack) findBinding(name string, from *Scope) *Binding {
	for s := from; s != nil; s = s.parent {
		if b, ok := s.lookupLocal(name); ok {
			return b
		}
	}
	return nil
}

// LookupExited searches the block scopes already exited within the current
// function. A hit means the name was assigned in a branch or loop body and
// is now read outside it: the binding must hoist to function scope.
func (st *ScopeStack) LookupExited(name string) (*Binding, bool) {
	for i := len(st.exitedBlocks) - 1; i >= 0; i-- {
		if b, ok := st.exitedBlocks[i].lookupLocal(name); ok {
			return b, true
		}
	}
	return nil, false
}

// Narrow overrides name's type inside the current scope. The caller pairs
// it with ClearNarrow when the branch ends.
func (st *ScopeStack) Narrow(name string, ty typesystem.Type) {
	if st.cur.narrowed == nil {
		st.cur.narrowed = make(map[string]typesystem.Type)
	}
	st.cur.narrowed[name] = ty
}

func (st *ScopeStack) ClearNarrow(name string) {
	delete(st.cur.narrowed, name)
}

// ClearNarrowAll drops every overlay for name along the scope chain. Called
// on reassignment: the stored value no longer matches the narrowed fact.
func (st *ScopeStack) ClearNarrowAll(name string) {
	for s := st.cur; s != nil; s = s.parent {
		delete(s.narrowed, name)
	}
}

// FunctionScope returns the nearest enclosing function scope, or the module
// root when outside any function.
func (st *ScopeStack) FunctionScope() *Scope {
	for s := st.cur; s != nil; s = s.parent {
		if s.kind == scopeFunction {
			return s
		}
	}
	return st.root
}
