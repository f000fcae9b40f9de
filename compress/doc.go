// Package compress provides the codecs behind engine's "copy ...
// STORAGE hash" destination compression (engine.Engine.HashCodec).
// Compression never touches the byte-exact ordered timeseries entry;
// it applies only to a hash destination's JSON-encoded value once it
// crosses engine.HashValueCompressionThreshold, and is reversed by the
// engine's hashget verb on read.
//
// Four algorithms are available, selected through CreateCodec/GetCodec:
//
//   - None (format.CompressionNone): no compression, the engine default
//   - Zstd (format.CompressionZstd): best ratio, moderate speed
//   - S2 (format.CompressionS2): balanced ratio and speed
//   - LZ4 (format.CompressionLZ4): fastest decompression
//
// All four implement Codec (Compressor + Decompressor) and are safe
// for concurrent use. Zstd pools its encoders and decoders and LZ4 pools
// its block compressors rather than allocating one per call; S2 and
// None keep no per-call state to pool.
package compress
