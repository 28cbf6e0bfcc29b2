package oauthflow

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-social-login/internal/utils"
	"github.com/jrsteele09/go-social-login/oauth2"
	"github.com/jrsteele09/go-social-login/providers"
	"github.com/jrsteele09/go-social-login/sessions"
	"github.com/jrsteele09/go-social-login/users"
)

const mockTokenLifetime = 3600

// runMock resolves p from the development fixtures after the mock delay.
// Consent, exchange and profile fetch are skipped, and a login creates the
// account when it does not exist yet.
func (c *Controller) runMock(ctx context.Context, p *Pending, cfg providers.Config) {
	p.setState(StateAwaitingConsent)

	timer := time.NewTimer(c.mockDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.fail(p, newError(KindTimeout, cfg.Name, ctx.Err()))
		} else {
			c.fail(p, &Error{Kind: KindProviderDenied, Provider: cfg.Name, Reason: "cancelled", Err: ctx.Err()})
		}
		return
	}

	now := c.nowTime()
	user, ok := users.MockUser(cfg.Name, now)
	if !ok {
		c.fail(p, errorf(KindUnsupportedProvider, cfg.Name, "no mock user for %s", cfg.Name))
		return
	}

	p.setState(StateFetchingProfile)
	user, existing, err := c.reconcile(cfg.Name, p.action, user, true)
	if err != nil {
		c.fail(p, err)
		return
	}

	res := Result{
		User: user,
		Token: sessions.TokenRecordFromResponse(cfg.Name, oauth2.TokenResponse{
			AccessToken: "mock_" + cfg.Name + "_token",
			TokenType:   "Bearer",
			ExpiresIn:   mockTokenLifetime,
			Scope:       utils.Ptr(cfg.Scope),
		}, now),
		Provider: cfg.Name,
		Action:   p.action,
		Existing: existing,
	}
	if err := c.commit(res); err != nil {
		c.fail(p, err)
		return
	}
	c.finish(p, res, nil)
}
