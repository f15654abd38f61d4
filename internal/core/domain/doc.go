// Package domain defines the core business entities for the Jobber client.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TokenPair: An immutable OAuth access/refresh token pair with expiry
//   - ThrottleStatus: The cost-based rate-limit state reported per response
//   - WebhookEvent: A parsed webhook notification
//   - The error taxonomy shared by every layer
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
