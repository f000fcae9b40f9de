package compress

// ZstdCompressor trades compression speed for ratio, for hosts that
// configure engine.Engine.HashCodec to favor storage size over CPU on
// the copy...STORAGE hash write path. Compress/Decompress live in
// zstd_pure.go (default, no cgo) or zstd_cgo.go (behind a build tag).
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
