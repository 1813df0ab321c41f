// Package memory provides an in-process driven.KeyValueStore for tests and
// throwaway sessions. Nothing survives the process.
package memory
