// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SecretStore: Credential persistence (Doppler in production)
//   - TokenProvider: Valid access tokens with transparent refresh
//
// # Optional Interfaces
//
// These can be nil - the corresponding feature degrades gracefully:
//
//   - SchemaStore: Schema introspection cache. Without it every schema
//     request goes to the API.
//   - UploadPresigner: Presigned photo-upload URLs. Without it the
//     photos feature is disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
