// Package shard spreads one envelope over several carriers with
// Reed-Solomon parity.
//
// With 4 data shards and 2 parity shards, any 2 carriers can be lost or
// damaged and the envelope is still fully recoverable. Every shard carries
// a BLAKE3 digest of the whole envelope, checked after reconstruction.
//
// This implementation uses the klauspost/reedsolomon library.
package shard
