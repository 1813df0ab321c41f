// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - KeyValueStore: Opaque string storage behind the token store
//   - Browser: Opens a URL in the login surface
//   - MetadataFetcher: OIDC discovery document retrieval
//   - TokenEndpoint: authorization_code and refresh_token grants
//   - ResourceFetcher: Bearer-authenticated profile fetch after login
//
// # Optional Interfaces
//
//   - ProviderConfigStore: Persisted provider configurations (CLI only)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
