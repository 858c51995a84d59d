package echoapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

const stateExpiration = 5 * time.Minute

var errInvalidState = errors.New("invalid state parameter")

// oauthState carries the post-login redirect through the OAuth round-trip,
// HMAC-signed so the callback can trust it.
type oauthState struct {
	RedirectURI string    `json:"r"`
	TimeStamp   time.Time `json:"t"`
	Signature   string    `json:"sig"`
}

func (s *oauthState) encode() string {
	b, _ := json.Marshal(s)
	return base64.StdEncoding.EncodeToString(b)
}

func newOauthState(secret, redirectURI string) *oauthState {
	s := &oauthState{
		RedirectURI: redirectURI,
		TimeStamp:   time.Now(),
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(s.encode()))
	s.Signature = hex.EncodeToString(h.Sum(nil))
	return s
}

func parseOauthState(secret, raw string) (*oauthState, error) {
	if raw == "" {
		return nil, errInvalidState
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, errInvalidState
	}
	var state oauthState
	if err = json.Unmarshal(b, &state); err != nil {
		return nil, errInvalidState
	}

	// authenticate before trusting any decoded field
	actual, err := hex.DecodeString(state.Signature)
	if err != nil {
		return nil, errInvalidState
	}
	state.Signature = ""

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(state.encode()))
	if !hmac.Equal(actual, h.Sum(nil)) {
		return nil, errInvalidState
	}

	if state.TimeStamp.Add(stateExpiration).Before(time.Now()) {
		return nil, errInvalidState
	}
	return &state, nil
}
