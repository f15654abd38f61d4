// Package services implements the core application logic behind the
// driving ports: the token lifecycle manager, the rate-limited GraphQL
// executor, and the webhook, photo, and schema-introspection services
// built on top of them.
package services
