package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mwalimu/somo/core"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountDisabled = errors.New("account disabled")

	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	ErrRevokedToken = errors.New("revoked token")
)

// Token audiences. Custom tokens are only good for signing in (the bridge
// exchange), never for calling APIs directly.
const (
	audienceCustom  = "somo/bridge"
	audienceID      = "somo/id"
	audienceRefresh = "somo/refresh"
)

type (
	// Account is a directory account. It exists alongside the user profile:
	// the profile is application data, the account carries authorization
	// claims and the enable/disable switch.
	Account struct {
		UID        string
		Email      string
		Disabled   bool
		Claims     ClaimMap
		ValidSince time.Time
		CreatedAt  time.Time
		UpdatedAt  time.Time
	}

	// Session is the result of a successful sign-in or refresh.
	Session struct {
		UID          string
		Email        string
		IDToken      string
		RefreshToken string
		Claims       ClaimSet
		ExpiresAt    time.Time
	}

	// Token is a verified ID token.
	Token struct {
		UID       string
		Email     string
		Claims    ClaimSet
		IssuedAt  time.Time
		ExpiresAt time.Time
	}

	Repository interface {
		CreateAccount(ctx context.Context, acct Account) (Account, error)
		GetAccount(ctx context.Context, uid string) (Account, error)
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		QueryAccounts(ctx context.Context) ([]Account, error)
		UpdateAccountEmail(ctx context.Context, uid, email string) error
		SetAccountClaims(ctx context.Context, uid string, claims ClaimMap) (Account, error)
		SetAccountDisabled(ctx context.Context, uid string, disabled bool) (Account, error)
		SetAccountValidSince(ctx context.Context, uid string, ts time.Time) error
	}
)

// ClaimSet returns the typed view of the account's claims.
func (a Account) ClaimSet() (ClaimSet, error) {
	return ClaimSetFromMap(a.Claims)
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email      string   `json:"email,omitempty"`
	AuthClaims ClaimMap `json:"claims,omitempty"`
}

// Service is the identity directory: it owns directory accounts and mints and
// verifies the directory's tokens.
type Service struct {
	conf   *core.Config
	repo   Repository
	logger core.Logger

	// mockable for tests
	NowFunc func() time.Time
}

func NewService(conf *core.Config, repo Repository, logger core.Logger) *Service {
	return &Service{
		conf:    conf,
		repo:    repo,
		logger:  logger,
		NowFunc: time.Now,
	}
}

func (svc *Service) now() time.Time { return svc.NowFunc().UTC() }

func (svc *Service) signingKey() []byte {
	if key := svc.conf.Identity.SigningKey; key != "" {
		return []byte(key)
	}
	return []byte(svc.conf.SecretKey)
}

// EnsureAccount returns the account for uid, creating it on first sign-in.
// The email is kept in sync with the sign-in provider's.
func (svc *Service) EnsureAccount(ctx context.Context, uid, email string) (Account, error) {
	email = core.CleanString(email, true)

	acct, err := svc.repo.GetAccount(ctx, uid)
	if err != nil {
		if errors.Cause(err) != ErrAccountNotFound {
			return Account{}, errors.Wrap(err, "getting account")
		}
		now := svc.now()
		acct = Account{
			UID:        uid,
			Email:      email,
			Claims:     make(ClaimMap),
			ValidSince: now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		acct, err = svc.repo.CreateAccount(ctx, acct)
		return acct, errors.Wrap(err, "creating account")
	}

	if acct.Email != email {
		if err = svc.repo.UpdateAccountEmail(ctx, uid, email); err != nil {
			return Account{}, errors.Wrap(err, "updating account email")
		}
		acct.Email = email
	}
	return acct, nil
}

func (svc *Service) Account(ctx context.Context, uid string) (Account, error) {
	acct, err := svc.repo.GetAccount(ctx, uid)
	return acct, errors.Wrap(err, "getting account")
}

func (svc *Service) Accounts(ctx context.Context) ([]Account, error) {
	accts, err := svc.repo.QueryAccounts(ctx)
	return accts, errors.Wrap(err, "querying accounts")
}

// UpdateClaims overwrites the account's claim bag. The bag is validated first
// so a bad write can never make the authorization gate misfire later.
func (svc *Service) UpdateClaims(ctx context.Context, uid string, claims ClaimMap) (Account, error) {
	if _, err := ClaimSetFromMap(claims); err != nil {
		return Account{}, err
	}
	acct, err := svc.repo.SetAccountClaims(ctx, uid, claims)
	return acct, errors.Wrap(err, "setting account claims")
}

func (svc *Service) SetDisabled(ctx context.Context, uid string, disabled bool) (Account, error) {
	acct, err := svc.repo.SetAccountDisabled(ctx, uid, disabled)
	return acct, errors.Wrap(err, "setting account disabled")
}

// MintCustomToken issues a short-lived single-purpose token that a client can
// exchange for a directory session.
func (svc *Service) MintCustomToken(ctx context.Context, uid string) (string, error) {
	acct, err := svc.repo.GetAccount(ctx, uid)
	if err != nil {
		return "", errors.Wrap(err, "getting account")
	}
	if acct.Disabled {
		return "", ErrAccountDisabled
	}
	return svc.signToken(tokenClaims{
		RegisteredClaims: svc.registeredClaims(uid, audienceCustom, svc.conf.Identity.CustomTokenTTL),
	})
}

// SignInWithCustomToken exchanges a custom token for a full session.
func (svc *Service) SignInWithCustomToken(ctx context.Context, token string) (Session, error) {
	tc, err := svc.parseToken(token, audienceCustom)
	if err != nil {
		return Session{}, err
	}
	acct, err := svc.repo.GetAccount(ctx, tc.Subject)
	if err != nil {
		return Session{}, errors.Wrap(err, "getting account")
	}
	if acct.Disabled {
		return Session{}, ErrAccountDisabled
	}
	return svc.issueSession(acct)
}

// RefreshSession issues a fresh session off a refresh token. The new ID token
// carries the account's current claims, so refreshing is how a client picks
// up claim changes made since it signed in.
func (svc *Service) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	tc, err := svc.parseToken(refreshToken, audienceRefresh)
	if err != nil {
		return Session{}, err
	}
	acct, err := svc.repo.GetAccount(ctx, tc.Subject)
	if err != nil {
		return Session{}, errors.Wrap(err, "getting account")
	}
	if acct.Disabled {
		return Session{}, ErrRevokedToken
	}
	if revokedSince(tc, acct.ValidSince) {
		return Session{}, ErrRevokedToken
	}
	return svc.issueSession(acct)
}

// VerifyIDToken checks an ID token's signature and expiry and decodes its
// claims. With checkRevoked, it additionally hits the directory to reject
// tokens issued before the account's last sign-out or while it is disabled.
func (svc *Service) VerifyIDToken(ctx context.Context, token string, checkRevoked bool) (*Token, error) {
	tc, err := svc.parseToken(token, audienceID)
	if err != nil {
		return nil, err
	}
	cs, err := ClaimSetFromMap(tc.AuthClaims)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidToken, "decoding claims: %v", err)
	}

	if checkRevoked {
		acct, err := svc.repo.GetAccount(ctx, tc.Subject)
		if err != nil {
			return nil, errors.Wrap(err, "getting account")
		}
		if acct.Disabled {
			return nil, ErrRevokedToken
		}
		if revokedSince(tc, acct.ValidSince) {
			return nil, ErrRevokedToken
		}
	}

	return &Token{
		UID:       tc.Subject,
		Email:     tc.Email,
		Claims:    cs,
		IssuedAt:  tc.IssuedAt.Time,
		ExpiresAt: tc.ExpiresAt.Time,
	}, nil
}

// SignOut revokes every outstanding token for the account. Tokens issued
// before this moment fail revocation checks and cannot be refreshed.
func (svc *Service) SignOut(ctx context.Context, uid string) error {
	err := svc.repo.SetAccountValidSince(ctx, uid, svc.now())
	return errors.Wrap(err, "setting account valid-since")
}

func (svc *Service) issueSession(acct Account) (Session, error) {
	cs, err := acct.ClaimSet()
	if err != nil {
		return Session{}, errors.Wrap(err, "decoding account claims")
	}

	idToken, err := svc.signToken(tokenClaims{
		RegisteredClaims: svc.registeredClaims(acct.UID, audienceID, svc.conf.Identity.IDTokenTTL),
		Email:            acct.Email,
		AuthClaims:       acct.Claims,
	})
	if err != nil {
		return Session{}, err
	}
	refreshToken, err := svc.signToken(tokenClaims{
		RegisteredClaims: svc.registeredClaims(acct.UID, audienceRefresh, svc.conf.Identity.RefreshTokenTTL),
	})
	if err != nil {
		return Session{}, err
	}

	return Session{
		UID:          acct.UID,
		Email:        acct.Email,
		IDToken:      idToken,
		RefreshToken: refreshToken,
		Claims:       cs,
		ExpiresAt:    svc.now().Add(svc.conf.Identity.IDTokenTTL),
	}, nil
}

func (svc *Service) registeredClaims(uid, audience string, ttl time.Duration) jwt.RegisteredClaims {
	now := svc.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    svc.conf.AppName,
		Subject:   uid,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (svc *Service) signToken(tc tokenClaims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(svc.signingKey())
	return token, errors.Wrap(err, "signing token")
}

func (svc *Service) parseToken(token, audience string) (*tokenClaims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(
		token, &tc,
		func(t *jwt.Token) (interface{}, error) { return svc.signingKey(), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(svc.conf.AppName),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(svc.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if tc.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &tc, nil
}

// revokedSince reports whether the token predates the account's valid-since
// mark. Both sides are truncated to seconds since iat carries no finer
// precision.
func revokedSince(tc *tokenClaims, validSince time.Time) bool {
	if tc.IssuedAt == nil {
		return true
	}
	return tc.IssuedAt.Time.Truncate(time.Second).Before(validSince.Truncate(time.Second))
}
