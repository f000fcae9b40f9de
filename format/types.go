// Package format defines the small value types shared across package
// boundaries: compression selection, output format, storage target, and
// the thirteen aggregation kinds. Keeping these in a leaf package (no
// imports of its own) avoids import cycles between codec, query,
// aggregate, and engine.
package format

// CompressionType selects the Codec used to compress a payload. It is
// consumed by package compress and, via the engine's STORAGE hash
// enrichment, by package engine.
type CompressionType uint8

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// OutputFormat selects how a verb's result is rendered: the default
// native ordered-sequence reply, a JSON string, or a binary msgpack blob.
type OutputFormat uint8

const (
	FormatNative OutputFormat = iota
	FormatJSON
	FormatMsgpack
)

func (f OutputFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "native"
	}
}

// StorageTarget selects the shape of a copy verb's destination.
type StorageTarget uint8

const (
	StorageTimeseries StorageTarget = iota
	StorageHash
)

func (s StorageTarget) String() string {
	switch s {
	case StorageHash:
		return "hash"
	default:
		return "timeseries"
	}
}

// AggKind is one of the thirteen tumbling-window reductions.
type AggKind uint8

const (
	AggCount AggKind = iota
	AggRate
	AggSum
	AggAvg
	AggMin
	AggMax
	AggFirst
	AggLast
	AggRange
	AggStats
	AggDistinct
	AggCountDistinct
	AggData
)

var aggKindNames = map[AggKind]string{
	AggCount:         "count",
	AggRate:          "rate",
	AggSum:           "sum",
	AggAvg:           "avg",
	AggMin:           "min",
	AggMax:           "max",
	AggFirst:         "first",
	AggLast:          "last",
	AggRange:         "range",
	AggStats:         "stats",
	AggDistinct:      "distinct",
	AggCountDistinct: "count_distinct",
	AggData:          "data",
}

var aggKindByName = func() map[string]AggKind {
	m := make(map[string]AggKind, len(aggKindNames))
	for k, v := range aggKindNames {
		m[v] = k
	}

	return m
}()

func (k AggKind) String() string {
	if name, ok := aggKindNames[k]; ok {
		return name
	}

	return "unknown"
}

// AggKindFromString returns the AggKind for a lower-cased kind name and
// whether it was recognized.
func AggKindFromString(name string) (AggKind, bool) {
	k, ok := aggKindByName[name]
	return k, ok
}
