package core

import "encoding/json"

// SignedResponse is the login consent response a wallet delivers to the
// webhook. Only the fields the correlation protocol needs are modeled; the
// full structure is passed through to the verification backend untouched.
type SignedResponse struct {
	SigningID string          `json:"signing_id"`
	Signature string          `json:"signature"`
	Decision  ConsentDecision `json:"decision"`

	// Raw keeps the original body so the verification backend sees exactly
	// what the wallet signed.
	Raw json.RawMessage `json:"-"`
}

// ConsentDecision wraps the request the wallet answered
type ConsentDecision struct {
	Request ConsentRequest `json:"request"`
}

// ConsentRequest carries the challenge the wallet signed over
type ConsentRequest struct {
	Challenge ConsentChallenge `json:"challenge"`
}

// ConsentChallenge holds the identifier correlating the response back to
// the issued challenge
type ConsentChallenge struct {
	ChallengeID string `json:"challenge_id"`
}

// ParseSignedResponse decodes a raw webhook body into a SignedResponse.
// Returns ErrMalformedResponse when the body is not a consent response.
func ParseSignedResponse(raw []byte) (*SignedResponse, error) {
	var resp SignedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, ErrMalformedResponse
	}
	if resp.SigningID == "" || resp.Signature == "" {
		return nil, ErrMalformedResponse
	}
	resp.Raw = json.RawMessage(raw)
	return &resp, nil
}

// ChallengeID returns the challenge identifier embedded in the response
func (r *SignedResponse) ChallengeID() string {
	return r.Decision.Request.Challenge.ChallengeID
}
