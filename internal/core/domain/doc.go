// Package domain defines the core entities for social login coordination.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ProviderConfig: per-provider OAuth2/OIDC client settings
//   - PendingAuthState: an in-flight login awaiting its redirect callback
//   - TokenSet: the tokens persisted for a provider after login or refresh
//   - CallbackEvent: the data a browser surface hands back after redirect
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
