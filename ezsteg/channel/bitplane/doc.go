// Package bitplane writes envelopes into the least-significant bits of an
// RGB raster.
//
// Bit k of the envelope (most significant bit of each byte first) replaces
// the LSB of channel value k, walking pixels in row-major order and channels
// in R, G, B order. One envelope byte consumes exactly eight channel values.
// No length marker is stored besides the envelope header itself, so
// extraction reads the 8-byte header from the first 64 values and then only
// as many further values as the header announces.
package bitplane
