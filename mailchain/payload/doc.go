// Package payload turns a message body into an encrypted payload.
//
// A Payload is a canonical header block plus the carried content. Encrypt
// seals the header block under derive(root, "headers") and splits the content
// into chunks, each sealed under its own key derive(derive(root, "content"), i).
// Decrypt is the exact inverse: a single failing chunk rejects the whole
// payload.
package payload
