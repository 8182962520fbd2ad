package service

import (
	"context"
	"fmt"

	"github.com/Fried333/verus-connect/core"
)

// VerifyResponse processes a signed login consent response delivered by a
// wallet:
//
//  1. parse the raw body (core.ErrMalformedResponse on schema violation)
//  2. verify the signature with the external backend, bounded by
//     VerifyTimeout (backend unreachable → core.ErrVerificationUnavailable,
//     invalid signature → core.ErrVerificationFailed)
//  3. correlate the embedded challenge identifier against the store
//     (core.ErrChallengeNotFound when absent or expired)
//  4. resolve a friendly name, falling back to the raw i-address
//  5. run the application hook; its failure is logged and ignored
//  6. store the Result (idempotent overwrite on webhook retries)
func (s *LoginService) VerifyResponse(ctx context.Context, raw []byte) (*core.VerifiedLogin, error) {
	response, err := core.ParseSignedResponse(raw)
	if err != nil {
		return nil, err
	}

	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	verified, err := s.verus.VerifyLoginResponse(verifyCtx, response)
	if err != nil {
		s.log.Warn().Err(err).Msg("verification backend unreachable")
		return nil, fmt.Errorf("%w: %v", core.ErrVerificationUnavailable, err)
	}
	if !verified {
		return nil, core.ErrVerificationFailed
	}

	challengeID := response.ChallengeID()
	if challengeID == "" {
		return nil, core.ErrChallengeNotFound
	}
	if _, err := s.store.Get(ctx, challengeID); err != nil {
		return nil, err
	}

	friendlyName := s.resolveFriendlyName(ctx, response.SigningID)

	login := &core.VerifiedLogin{
		IAddress:     response.SigningID,
		FriendlyName: friendlyName,
		ChallengeID:  challengeID,
	}

	result := &core.Result{
		ChallengeID:  challengeID,
		IAddress:     login.IAddress,
		FriendlyName: login.FriendlyName,
		Data:         s.runLoginHook(ctx, login),
	}

	if err := s.store.SetResult(ctx, challengeID, result); err != nil {
		return nil, err
	}

	if s.events != nil {
		if err := s.events.PublishLoginVerified(ctx, login); err != nil {
			s.log.Warn().Err(err).Str("challenge_id", challengeID).Msg("failed to publish login event")
		}
	}

	s.log.Info().
		Str("challenge_id", challengeID).
		Str("i_address", login.IAddress).
		Str("friendly_name", login.FriendlyName).
		Msg("login verified")

	return login, nil
}

// resolveFriendlyName is best-effort: a directory failure must not abort
// verification, so the raw signer identifier is the fallback.
func (s *LoginService) resolveFriendlyName(ctx context.Context, iAddress string) string {
	name, err := s.verus.ResolveFriendlyName(ctx, iAddress)
	if err != nil || name == "" {
		s.log.Debug().Err(err).Str("i_address", iAddress).Msg("friendly name lookup failed")
		return iAddress
	}
	return name
}

// runLoginHook isolates the application hook: panics and errors are logged
// and never escalate to the wallet's request.
func (s *LoginService) runLoginHook(ctx context.Context, login *core.VerifiedLogin) (data map[string]any) {
	if s.onLogin == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("login hook panicked")
			data = nil
		}
	}()

	data, err := s.onLogin(ctx, login)
	if err != nil {
		s.log.Error().Err(err).Str("challenge_id", login.ChallengeID).Msg("login hook failed")
		return nil
	}
	return data
}
