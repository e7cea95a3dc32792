package rules

import (
	"fmt"
	"strings"
)

// Bucket is a priority-ordered rule category. Lower values are checked first;
// the zero value is not a valid bucket.
type Bucket int

const (
	BucketHouse Bucket = iota + 1
	BucketGeneral
	BucketTables
)

// Priority lists every bucket in the order retrieval must scan them.
var Priority = [...]Bucket{
	BucketHouse,
	BucketGeneral,
	BucketTables,
}

var bucketNames = map[Bucket]string{
	BucketHouse:   "house",
	BucketGeneral: "general",
	BucketTables:  "tables",
}

func (b Bucket) String() string {
	if name, ok := bucketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("bucket(%d)", int(b))
}

// Valid reports whether b is one of the declared buckets.
func (b Bucket) Valid() bool {
	_, ok := bucketNames[b]
	return ok
}

// ParseBucket resolves a bucket name case-insensitively.
func ParseBucket(s string) (Bucket, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, b := range Priority {
		if bucketNames[b] == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

func (b Bucket) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBucket, int(b))
	}
	return []byte(b.String()), nil
}

func (b *Bucket) UnmarshalText(data []byte) error {
	parsed, err := ParseBucket(string(data))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
