package auth

import (
	"context"
	"sync"

	"github.com/mwalimu/somo/core"
	"github.com/mwalimu/somo/core/identity"
)

// BridgeState tracks where a client is in the session exchange.
type BridgeState int

const (
	Unbridged BridgeState = iota
	Bridging
	Bridged
)

func (s BridgeState) String() string {
	switch s {
	case Bridging:
		return "bridging"
	case Bridged:
		return "bridged"
	}
	return "unbridged"
}

type (
	// CustomTokenSource obtains a custom token for the client's current
	// web session.
	CustomTokenSource interface {
		CustomToken(ctx context.Context) (string, error)
	}

	// DirectoryClient is the slice of the identity directory the bridge
	// drives. Satisfied by *identity.Service and by the HTTP client.
	DirectoryClient interface {
		SignInWithCustomToken(ctx context.Context, token string) (identity.Session, error)
		RefreshSession(ctx context.Context, refreshToken string) (identity.Session, error)
		SignOut(ctx context.Context, uid string) error
	}
)

// Bridge turns an authenticated web session into a directory session and
// keeps the two in lockstep: it signs in when the web session appears and
// signs out when it goes away.
//
// A Bridge is scoped to one client session. All bridging state lives here,
// never in package-level variables, so concurrent sessions cannot observe
// each other's progress.
type Bridge struct {
	tokens CustomTokenSource
	dir    DirectoryClient
	logger core.Logger

	mu        sync.Mutex
	state     BridgeState
	attempted bool
	session   *identity.Session
}

func NewBridge(tokens CustomTokenSource, dir DirectoryClient, logger core.Logger) *Bridge {
	return &Bridge{tokens: tokens, dir: dir, logger: logger}
}

func (b *Bridge) State() BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Session returns the active directory session, or nil when not bridged.
func (b *Bridge) Session() *identity.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return nil
	}
	sess := *b.session
	return &sess
}

// SessionChanged reacts to a change in the client's web session. Call it with
// the session's authenticated state and email whenever either changes.
//
// Exactly one sign-in attempt is made per authenticated transition: a failed
// attempt is not retried until the session cycles through unauthenticated.
// Bridging failures are logged and leave the bridge unbridged; the web
// session itself is unaffected.
func (b *Bridge) SessionChanged(ctx context.Context, authenticated bool, email string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !authenticated {
		b.teardown(ctx)
		return
	}

	if b.attempted {
		return
	}
	b.attempted = true

	// A directory session for the same account may survive a client
	// restart. Skip the full exchange and force a refresh so the session
	// picks up any claim changes made in the meantime.
	if b.session != nil && b.session.Email == email {
		b.refresh(ctx)
		return
	}

	b.state = Bridging

	token, err := b.tokens.CustomToken(ctx)
	if err != nil {
		b.logger.Error("bridge: obtaining custom token", err)
		b.state = Unbridged
		return
	}
	sess, err := b.dir.SignInWithCustomToken(ctx, token)
	if err != nil {
		b.logger.Error("bridge: signing in", err)
		b.state = Unbridged
		return
	}
	b.session = &sess
	b.state = Bridged

	// Claims may have changed between token mint and sign-in.
	b.refresh(ctx)
}

func (b *Bridge) refresh(ctx context.Context) {
	sess, err := b.dir.RefreshSession(ctx, b.session.RefreshToken)
	if err != nil {
		b.logger.Error("bridge: refreshing session", err)
		b.session = nil
		b.state = Unbridged
		return
	}
	b.session = &sess
	b.state = Bridged
}

func (b *Bridge) teardown(ctx context.Context) {
	if b.session != nil {
		if err := b.dir.SignOut(ctx, b.session.UID); err != nil {
			b.logger.Error("bridge: signing out", err)
		}
		b.session = nil
	}
	b.state = Unbridged
	b.attempted = false
}
