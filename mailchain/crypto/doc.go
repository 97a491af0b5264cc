// Package crypto provides the primitives Mailchain messages are sealed with.
//
//   - Key agreement on Ed25519 (via X25519), Secp256k1 and Secp256r1
//   - Secret-key encryption via NaCl secretbox or XChaCha20-Poly1305
//   - One-shot public-key encryption with an ephemeral sender key
//   - Key derivation via HKDF-SHA256
//
// Every ciphertext carries its own nonce; decryption never needs anything
// beyond the key and the ciphertext.
package crypto
