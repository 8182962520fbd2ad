package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Fried333/verus-connect/core"
	"github.com/Fried333/verus-connect/internal/identity"
	"github.com/Fried333/verus-connect/ports"
)

// IdentityViewKey is the VDXF key of the permission requested by default
const IdentityViewKey = "iP3euVSzNcXUrLNHnQnR9G6q8jeYuGSxgw"

// LoginHook is invoked after a wallet response passes verification. Its
// return value, if any, is merged into the stored Result as opaque
// passthrough data. Hook failures never fail verification.
type LoginHook func(ctx context.Context, login *core.VerifiedLogin) (map[string]any, error)

// Config configures a LoginService
type Config struct {
	Store   ports.ChallengeStore
	Verus   ports.VerusClient
	Events  ports.EventPublisher
	OnLogin LoginHook

	// ChallengeTTL bounds how long an unresolved challenge stays pollable
	// (default 5 minutes).
	ChallengeTTL time.Duration

	// VerifyTimeout bounds the external verification call so a hung
	// backend surfaces as unavailable instead of hanging the handler
	// (default 15 seconds).
	VerifyTimeout time.Duration

	Logger zerolog.Logger
}

// LoginService issues login challenges, verifies wallet responses and
// answers poll reads. It owns no state of its own; everything lives in the
// injected ChallengeStore.
type LoginService struct {
	store   ports.ChallengeStore
	verus   ports.VerusClient
	events  ports.EventPublisher
	onLogin LoginHook

	challengeTTL  time.Duration
	verifyTimeout time.Duration
	log           zerolog.Logger
}

// NewLoginService creates a new login service. Returns
// core.ErrConfiguration when the store or the verification backend is
// missing.
func NewLoginService(cfg Config) (*LoginService, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: challenge store is required", core.ErrConfiguration)
	}
	if cfg.Verus == nil {
		return nil, fmt.Errorf("%w: verus client is required", core.ErrConfiguration)
	}

	if cfg.ChallengeTTL <= 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}
	if cfg.VerifyTimeout <= 0 {
		cfg.VerifyTimeout = 15 * time.Second
	}

	return &LoginService{
		store:         cfg.Store,
		verus:         cfg.Verus,
		events:        cfg.Events,
		onLogin:       cfg.OnLogin,
		challengeTTL:  cfg.ChallengeTTL,
		verifyTimeout: cfg.VerifyTimeout,
		log:           cfg.Logger,
	}, nil
}

// ChallengeTTL returns the configured challenge time-to-live
func (s *LoginService) ChallengeTTL() time.Duration {
	return s.challengeTTL
}

// CreateChallenge issues a new login challenge: a fresh identifier, a
// signed login consent request from the verification backend, and a store
// registration. A backend failure is reported as core.ErrIssuance so
// callers answer with a 5xx rather than a 4xx.
func (s *LoginService) CreateChallenge(ctx context.Context) (*core.Challenge, error) {
	id, err := identity.NewChallengeID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIssuance, err)
	}

	challenge := &core.Challenge{
		ID:                   id,
		CreatedAt:            time.Now(),
		RequestedPermissions: []string{IdentityViewKey},
	}

	uri, err := s.verus.CreateLoginRequest(ctx, challenge)
	if err != nil {
		s.log.Error().Err(err).Msg("challenge creation failed")
		return nil, fmt.Errorf("%w: %v", core.ErrIssuance, err)
	}
	challenge.URI = uri

	if err := s.store.Put(ctx, challenge); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrIssuance, err)
	}

	s.log.Debug().Str("challenge_id", id).Msg("issued login challenge")
	return challenge, nil
}

// Result computes the tri-state poll outcome for a challenge from current
// store contents.
func (s *LoginService) Result(ctx context.Context, id string) (*core.PollResponse, error) {
	result, err := s.store.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &core.PollResponse{Status: core.StatusPending}, nil
	}
	return &core.PollResponse{
		Status:       core.StatusVerified,
		IAddress:     result.IAddress,
		FriendlyName: result.FriendlyName,
		Data:         result.Data,
	}, nil
}

// Health reports whether the verification backend is wired and how many
// challenges are live.
type Health struct {
	VerusLoaded      bool `json:"verusLoaded"`
	ActiveChallenges int  `json:"activeChallenges"`
}

// Healthz returns the current health snapshot
func (s *LoginService) Healthz(ctx context.Context) Health {
	return Health{
		VerusLoaded:      s.verus != nil,
		ActiveChallenges: s.store.Len(ctx),
	}
}
