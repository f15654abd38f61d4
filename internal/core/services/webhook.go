package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/jobber-cli/internal/core/domain"
	"github.com/custodia-labs/jobber-cli/internal/core/ports/driving"
)

// signaturePrefix is the scheme prefix Jobber puts in X-Jobber-Signature.
const signaturePrefix = "sha256="

// Ensure WebhookService implements the driving interface.
var _ driving.WebhookService = (*WebhookService)(nil)

// WebhookService validates webhook signatures and parses event payloads.
type WebhookService struct {
	secret string
}

// NewWebhookService creates a webhook service with the shared secret
// from the Jobber Developer Portal.
func NewWebhookService(secret string) *WebhookService {
	return &WebhookService{secret: secret}
}

// ValidateSignature checks the HMAC-SHA256 signature of a webhook
// payload. The signature must be in "sha256=<hex digest>" form; any
// other shape is an error rather than a plain mismatch, so callers can
// distinguish misconfiguration from spoofing.
func (s *WebhookService) ValidateSignature(payload []byte, signature string) (bool, error) {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return false, fmt.Errorf("%w: signature must be %q followed by a hex digest, got %q",
			domain.ErrInvalidInput, signaturePrefix, signature)
	}

	received := strings.TrimPrefix(signature, signaturePrefix)

	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	// Constant-time comparison to prevent timing attacks.
	return hmac.Equal([]byte(expected), []byte(received)), nil
}

// ParseEvent decodes a webhook payload into a WebhookEvent.
func (s *WebhookService) ParseEvent(payload []byte) (*domain.WebhookEvent, error) {
	var event domain.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: webhook payload is not valid JSON: %v",
			domain.ErrInvalidInput, err)
	}
	if event.EventType == "" {
		return nil, fmt.Errorf("%w: webhook payload missing event_type", domain.ErrInvalidInput)
	}
	return &event, nil
}
