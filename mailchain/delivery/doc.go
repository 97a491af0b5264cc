// Package delivery sends and receives protected messages.
//
// Sender composes a message once, encrypts it under a fresh root key, stores
// the framed payload and then builds one envelope per recipient. Envelopes
// are handed to a Transport concurrently; each recipient succeeds or fails on
// its own and the Report says which. The root key is zeroed before Send
// returns.
//
// Receiver is the inverse: it opens an envelope with the recipient's
// messaging key, fetches the payload, decrypts chunks as frames arrive and
// verifies the sender's content signature.
package delivery
