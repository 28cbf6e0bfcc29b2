package oauthflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-social-login/sessions"
	"github.com/jrsteele09/go-social-login/state"
	"github.com/jrsteele09/go-social-login/users"
	"github.com/rs/zerolog/log"
)

// Result is what a successful attempt produces.
type Result struct {
	User     users.CanonicalUser
	Token    sessions.TokenRecord
	Provider string
	Action   state.Action
	Existing bool // The account was already known before this attempt
}

// Pending is a started attempt. It resolves exactly once.
type Pending struct {
	id        string
	provider  string
	action    state.Action
	token     string
	startedAt time.Time

	current atomic.Int32
	inbox   chan CallbackMessage

	once   sync.Once
	done   chan struct{}
	result Result
	err    error
}

func newPending(id, provider string, action state.Action, startedAt time.Time) *Pending {
	return &Pending{
		id:        id,
		provider:  provider,
		action:    action,
		startedAt: startedAt,
		inbox:     make(chan CallbackMessage, 1),
		done:      make(chan struct{}),
	}
}

// ID identifies the attempt in logs.
func (p *Pending) ID() string { return p.id }

func (p *Pending) Provider() string { return p.provider }

func (p *Pending) Action() state.Action { return p.action }

// Token is the state token the callback must carry. Empty in mock mode.
func (p *Pending) Token() string { return p.token }

func (p *Pending) State() FlowState {
	return FlowState(p.current.Load())
}

// Done is closed once the attempt has resolved.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the attempt resolves or ctx is done. Giving up on ctx
// does not cancel the attempt.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (p *Pending) setState(s FlowState) {
	if p == nil {
		return
	}
	prev := FlowState(p.current.Swap(int32(s)))
	if prev != s {
		log.Debug().Str("attempt", p.id).Str("provider", p.provider).
			Str("from", prev.String()).Str("to", s.String()).Msg("flow state")
	}
}

// resolve settles the attempt. Only the first call has any effect; settle
// runs before waiters are released.
func (p *Pending) resolve(res Result, err error, settle func()) bool {
	resolved := false
	p.once.Do(func() {
		p.result, p.err = res, err
		if err != nil {
			p.setState(StateError)
		} else {
			p.setState(StateComplete)
		}
		if settle != nil {
			settle()
		}
		close(p.done)
		resolved = true
	})
	return resolved
}
