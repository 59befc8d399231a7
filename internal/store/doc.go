// Package store provides persistence for axolotld's identity and ratchet
// state.
//
// It contains concrete implementations of the domain storage interfaces:
//   - Identity keys, scrypt-sealed JSON on disk (IdentityFileStore)
//   - Ratchet state in memory (MemoryStateStore)
//   - Ratchet state as one JSON file per peer (StateFileStore)
//   - Ratchet state in a bbolt database, cbor encoded (BoltStateStore)
//
// All methods are concurrency-safe via internal locking. Every state backend
// hands out deep copies, so a caller mutating a loaded state never affects the
// stored record until it calls Save.
package store
