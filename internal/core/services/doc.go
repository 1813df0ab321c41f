// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The OAuth service owns the provider registry, the single pending login,
// PKCE and state generation, and token persistence. Everything that talks
// to the network or the disk sits behind a driven port.
package services
