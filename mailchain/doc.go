// Package mailchain sends and receives end-to-end encrypted messages.
//
// A message body is signed, encoded, split into chunks and encrypted under
// keys derived from a fresh per-message root key. The encrypted payload is
// written to storage once; each recipient then receives a small envelope
// carrying the storage location and the root key, both encrypted to the
// recipient's messaging key.
//
// Mailer wires the building blocks in the sub-packages (payload, envelope,
// storage, directory, delivery and the QUIC transport) from a config.Config.
package mailchain
