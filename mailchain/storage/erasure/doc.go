// Package erasure stores payloads as Reed-Solomon shards spread across
// several backing stores.
//
// With N data and K parity shards a payload survives the loss of any K shard
// locations. The URI handed back by Put encodes a manifest listing every
// shard location and digest, so no extra lookup is needed to read it back.
//
//	Data size | Config | Overhead | Tolerates
//	----------|--------|----------|----------
//	any       | 4+2    | 1.5x     | 2 lost locations
//	any       | 10+4   | 1.4x     | 4 lost locations
package erasure
