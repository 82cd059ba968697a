package internal

// ScopeID indexes a scope inside a ScopeStack arena.
type ScopeID int

const RootScope ScopeID = 0

type scope[T any] struct {
	parent  ScopeID
	symbols map[string]T
}

// ScopeStack is a chain of lexical scopes kept in an arena. A scope refers to its parent by
// id, and a parent always has a smaller id than its children. Scopes are never freed during
// a pass; Leave only changes which one is active.
type ScopeStack[T any] struct {
	scopes []*scope[T]
	active ScopeID
	trail  []ScopeID
}

func NewScopeStack[T any]() *ScopeStack[T] {
	return &ScopeStack[T]{
		scopes: []*scope[T]{{parent: RootScope, symbols: map[string]T{}}},
		active: RootScope,
	}
}

// Enter pushes a child of the active scope and makes it active.
func (s *ScopeStack[T]) Enter() ScopeID {
	return s.EnterFrom(s.active)
}

// EnterFrom pushes a child of an earlier scope. Function bodies enter from the root so they
// cannot see another function's locals.
func (s *ScopeStack[T]) EnterFrom(parent ScopeID) ScopeID {
	if int(parent) < 0 || int(parent) >= len(s.scopes) {
		panic("scope: unknown parent scope")
	}
	s.scopes = append(s.scopes, &scope[T]{parent: parent, symbols: map[string]T{}})
	s.trail = append(s.trail, s.active)
	s.active = ScopeID(len(s.scopes) - 1)
	return s.active
}

// Leave reactivates the scope that was active before the matching Enter.
func (s *ScopeStack[T]) Leave() {
	if len(s.trail) == 0 {
		panic("scope: leave on root scope")
	}
	s.active = s.trail[len(s.trail)-1]
	s.trail = s.trail[:len(s.trail)-1]
}

func (s *ScopeStack[T]) Active() ScopeID {
	return s.active
}

// Define binds name in the active scope, replacing a binding of the same scope only.
func (s *ScopeStack[T]) Define(name string, value T) {
	s.scopes[s.active].symbols[name] = value
}

// Resolve looks name up from the active scope outwards.
func (s *ScopeStack[T]) Resolve(name string) (T, ScopeID, bool) {
	id := s.active
	for {
		current := s.scopes[id]
		if value, ok := current.symbols[name]; ok {
			return value, id, true
		}
		if id == RootScope {
			var zero T
			return zero, RootScope, false
		}
		id = current.parent
	}
}

// ResolveLocal looks name up in the active scope only.
func (s *ScopeStack[T]) ResolveLocal(name string) (T, bool) {
	value, ok := s.scopes[s.active].symbols[name]
	return value, ok
}
