package media

import "sync"

// hub fans out session signals to registered observers. Shared by the
// WebRTC engine and the scripted session.
type hub struct {
	mu        sync.Mutex
	seq       int
	stateFns  map[int]func(ConnectionState)
	remoteFns map[int]func(bool)
	errFns    map[int]func(error)
}

func newHub() *hub {
	return &hub{
		stateFns:  make(map[int]func(ConnectionState)),
		remoteFns: make(map[int]func(bool)),
		errFns:    make(map[int]func(error)),
	}
}

func (h *hub) onState(fn func(ConnectionState)) func() {
	h.mu.Lock()
	h.seq++
	id := h.seq
	h.stateFns[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.stateFns, id)
		h.mu.Unlock()
	}
}

func (h *hub) onRemote(fn func(bool)) func() {
	h.mu.Lock()
	h.seq++
	id := h.seq
	h.remoteFns[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.remoteFns, id)
		h.mu.Unlock()
	}
}

func (h *hub) onError(fn func(error)) func() {
	h.mu.Lock()
	h.seq++
	id := h.seq
	h.errFns[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.errFns, id)
		h.mu.Unlock()
	}
}

func (h *hub) fireState(s ConnectionState) {
	h.mu.Lock()
	fns := make([]func(ConnectionState), 0, len(h.stateFns))
	for _, fn := range h.stateFns {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (h *hub) fireRemote(present bool) {
	h.mu.Lock()
	fns := make([]func(bool), 0, len(h.remoteFns))
	for _, fn := range h.remoteFns {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(present)
	}
}

func (h *hub) fireError(err error) {
	h.mu.Lock()
	fns := make([]func(error), 0, len(h.errFns))
	for _, fn := range h.errFns {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
}
