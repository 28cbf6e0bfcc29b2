// Package consent models the popup in which a user approves an OAuth request.
// A Surface opens a Window for an authorization URL and later reports the
// provider's redirect back through a DeliverFunc.
package consent

import (
	"context"
	"errors"
	"sync"
)

// ErrPopupBlocked is returned by Open when no window could be opened.
var ErrPopupBlocked = errors.New("consent window blocked")

// Request is what a surface needs to show the provider's consent screen.
type Request struct {
	Provider string
	AuthURL  string
	State    string
}

// Message is the callback a provider redirect produces. Error is set instead
// of Code when the user or provider refused.
type Message struct {
	Provider         string
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// DeliverFunc hands a callback message to whoever started the attempt.
type DeliverFunc func(Message) error

// Window is an open consent surface.
type Window interface {
	Close()
	Closed() <-chan struct{}
}

type Surface interface {
	Open(ctx context.Context, req Request, deliver DeliverFunc) (Window, error)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(ctx context.Context, req Request, deliver DeliverFunc) (Window, error)

func (f SurfaceFunc) Open(ctx context.Context, req Request, deliver DeliverFunc) (Window, error) {
	return f(ctx, req, deliver)
}

// BasicWindow is a Window that closes exactly once.
type BasicWindow struct {
	once   sync.Once
	closed chan struct{}
}

func NewWindow() *BasicWindow {
	return &BasicWindow{closed: make(chan struct{})}
}

func (w *BasicWindow) Close() {
	w.once.Do(func() { close(w.closed) })
}

func (w *BasicWindow) Closed() <-chan struct{} {
	return w.closed
}

// Blocked is a surface whose every Open is refused, like a browser popup blocker.
type Blocked struct{}

func (Blocked) Open(context.Context, Request, DeliverFunc) (Window, error) {
	return nil, ErrPopupBlocked
}
