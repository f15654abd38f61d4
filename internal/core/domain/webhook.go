package domain

// Webhook event topics published by Jobber.
// Source: https://developer.getjobber.com/docs/webhooks
const (
	EventClientCreate = "client.create"
	EventClientUpdate = "client.update"
	EventClientDelete = "client.delete"

	EventQuoteCreate    = "quote.create"
	EventQuoteUpdate    = "quote.update"
	EventQuoteApproved  = "quote.approved"
	EventQuoteConverted = "quote.converted"

	EventVisitCreate   = "visit.create"
	EventVisitUpdate   = "visit.update"
	EventVisitComplete = "visit.complete"
	EventVisitDelete   = "visit.delete"

	EventInvoiceCreate = "invoice.create"
	EventInvoiceUpdate = "invoice.update"
	EventInvoicePaid   = "invoice.paid"
	EventInvoiceSent   = "invoice.sent"

	EventJobCreate   = "job.create"
	EventJobUpdate   = "job.update"
	EventJobComplete = "job.complete"

	EventRequestCreate   = "request.create"
	EventRequestUpdate   = "request.update"
	EventRequestApproved = "request.approved"
)

// WebhookEvent is a parsed webhook notification.
type WebhookEvent struct {
	// EventType is the topic, e.g. "quote.approved".
	EventType string `json:"event_type"`
	// Data is the event payload.
	Data map[string]any `json:"data"`
}
