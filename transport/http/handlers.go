package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fried333/verus-connect/core"
	"github.com/Fried333/verus-connect/service"
)

// maxResponseBody bounds the webhook body size (signed responses are small)
const maxResponseBody = 1 << 20

// LoginHandlers contains the HTTP handlers for the login correlation routes
type LoginHandlers struct {
	loginService *service.LoginService
}

// NewLoginHandlers creates new login handlers
func NewLoginHandlers(loginService *service.LoginService) *LoginHandlers {
	return &LoginHandlers{loginService: loginService}
}

// Login handles challenge issuance
func (h *LoginHandlers) Login(c *gin.Context) {
	challenge, err := h.loginService.CreateChallenge(c.Request.Context())
	if err != nil {
		// Issuance failures are server-side: the signing backend is down,
		// not the caller's fault.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create login challenge"})
		return
	}

	c.JSON(http.StatusOK, core.ChallengeResponse{
		ChallengeID: challenge.ID,
		URI:         challenge.URI,
	})
}

// VerusIDLogin receives the signed response the wallet delivers
func (h *LoginHandlers) VerusIDLogin(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxResponseBody))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification error"})
		return
	}

	_, err = h.loginService.VerifyResponse(c.Request.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrVerificationUnavailable):
			// Retryable: the wallet must not read this as a denial.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Verification service unavailable, try again later"})
		case errors.Is(err, core.ErrVerificationFailed):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Signature verification failed"})
		case errors.Is(err, core.ErrChallengeNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found or expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Result answers poll reads for a challenge
func (h *LoginHandlers) Result(c *gin.Context) {
	id := c.Param("id")

	poll, err := h.loginService.Result(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrChallengeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "error": "Challenge not found or expired"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": "Failed to read result"})
		return
	}

	c.JSON(http.StatusOK, poll)
}

// Health reports service health
func (h *LoginHandlers) Health(c *gin.Context) {
	health := h.loginService.Healthz(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"verusLoaded":      health.VerusLoaded,
		"activeChallenges": health.ActiveChallenges,
	})
}
