package source

import "fmt"

// VersionRange represents an inclusive version range.
type VersionRange struct {
	From uint64
	To   uint64
}

// Contains reports whether version lies within the range.
func (r VersionRange) Contains(version uint64) bool {
	return version >= r.From && version <= r.To
}

// WindowOf returns the batch window containing version when the version
// space starting at origin is cut into windows of batchSize versions.
func WindowOf(version, origin, batchSize uint64) (VersionRange, error) {
	if batchSize == 0 {
		return VersionRange{}, fmt.Errorf("batch size must be greater than zero")
	}
	if version < origin {
		return VersionRange{}, fmt.Errorf("version %d is before origin %d", version, origin)
	}

	start := origin + (version-origin)/batchSize*batchSize
	end := start + batchSize - 1
	if end < start {
		end = ^uint64(0)
	}
	return VersionRange{From: start, To: end}, nil
}
