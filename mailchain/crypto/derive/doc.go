// Package derive implements one-way hardened derivation of child keys.
//
// A derivation step takes a parent key and a Segment, either an integer Index
// or a string Label, and yields a child. Index and Label segments are hashed
// under different domain bytes so their children never collide. Children
// expose nothing about their parent or siblings.
//
// RootKey wraps the per-message root encryption key: headers are sealed under
// derive(root, "headers") and chunk i under derive(derive(root, "content"), i).
package derive
