// Package envelope builds and opens per-recipient envelopes.
//
// An envelope lets exactly one recipient recover a message's root key and
// payload location. The sender generates an ephemeral key on the recipient's
// curve and computes the ECDH shared secret. That secret is used as an
// Ed25519 seed whose symmetric key seals the encoded root key and the
// location URI, each separately.
package envelope
