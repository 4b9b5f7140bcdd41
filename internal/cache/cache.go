package cache

// Cache defines a generic string-keyed cache
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Size returns the current number of items in the cache
	Size() int
}

// Stats is a point-in-time view of cache effectiveness
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// HitRatio returns hits / lookups, or 0 before the first lookup
func (s Stats) HitRatio() float64 {
	lookups := s.Hits + s.Misses
	if lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(lookups)
}

