package driving

import "github.com/custodia-labs/jobber-cli/internal/core/domain"

// WebhookService validates and parses incoming webhook notifications.
type WebhookService interface {
	// ValidateSignature checks the X-Jobber-Signature header against
	// the raw payload. Returns an error only for a malformed signature
	// format; a well-formed but wrong signature returns (false, nil).
	ValidateSignature(payload []byte, signature string) (bool, error)

	// ParseEvent decodes the payload into a WebhookEvent.
	ParseEvent(payload []byte) (*domain.WebhookEvent, error)
}
