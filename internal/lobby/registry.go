package lobby

import "container/list"

// registry tracks the registered sessions by handle while remembering the
// order in which they registered.
type registry struct {
	sessions map[string]*list.Element
	order    *list.List
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[string]*list.Element),
		order:    list.New(),
	}
}

// add registers s, returning false if its handle is already taken.
func (r *registry) add(s *Session) bool {
	if _, ok := r.sessions[s.handle]; ok {
		return false
	}
	r.sessions[s.handle] = r.order.PushBack(s)
	return true
}

// remove unregisters s. A different session holding the same handle is left
// alone.
func (r *registry) remove(s *Session) bool {
	elem, ok := r.sessions[s.handle]
	if !ok || elem.Value.(*Session) != s {
		return false
	}
	r.order.Remove(elem)
	delete(r.sessions, s.handle)
	return true
}

func (r *registry) lookup(handle string) *Session {
	if elem, ok := r.sessions[handle]; ok {
		return elem.Value.(*Session)
	}
	return nil
}

// has reports whether s is the live session for its handle.
func (r *registry) has(s *Session) bool {
	return s != nil && r.lookup(s.handle) == s
}

func (r *registry) len() int { return r.order.Len() }

// each calls fn for every session in registration order.
func (r *registry) each(fn func(s *Session)) {
	for elem := r.order.Front(); elem != nil; elem = elem.Next() {
		fn(elem.Value.(*Session))
	}
}

// idle returns the handles of sessions in the Idle state in registration order.
func (r *registry) idle() []string {
	var handles []string
	r.each(func(s *Session) {
		if s.state == Idle {
			handles = append(handles, s.handle)
		}
	})
	return handles
}
