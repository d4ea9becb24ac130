package codehash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the hashing serialization format.
//
// IMPORTANT: these tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones
// invalidates every previously computed cache key.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format. Bumping
// this invalidates every existing cache entry.
const HashVersion byte = 1

const (
	tagReservedZero byte = 0x00

	tagPackageName byte = 0x01
	tagSourceText  byte = 0x02
)
