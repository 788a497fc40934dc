package scripthost

import (
	"context"
	"fmt"
	"sync"
)

// Handler computes a Response in process.
type Handler func(ctx context.Context, req Request) (Response, error)

// Local is a Client that runs Go handlers keyed by node type name in
// process. It stands in for the remote host in tests and offline runs.
type Local struct {
	mu       sync.Mutex
	handlers map[string]Handler
	requests []Request
}

// NewLocal creates an empty Local client.
func NewLocal() *Local {
	return &Local{handlers: make(map[string]Handler)}
}

// Handle installs the handler for a node type.
func (l *Local) Handle(name string, h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[name] = h
}

// Requests returns every request seen so far.
func (l *Local) Requests() []Request {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Request(nil), l.requests...)
}

func (l *Local) Evaluate(ctx context.Context, req Request) (Response, error) {
	l.mu.Lock()
	l.requests = append(l.requests, req)
	h, ok := l.handlers[req.Name]
	l.mu.Unlock()
	if !ok {
		return Response{}, fmt.Errorf("no script handler for %s", req.Name)
	}
	resp, err := h(ctx, req)
	resp.ID = req.ID
	return resp, err
}

func (l *Local) Close() error { return nil }

var _ Client = (*Local)(nil)
