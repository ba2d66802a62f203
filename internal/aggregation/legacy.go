package aggregation

// Defaults applied when a legacy single bucket is promoted to the array form.
const (
	legacyBucketSize        = 10
	legacyBucketMinDocCount = 1
)

// EnsureMultiBuckets returns the ordered bucket list for cfg. A non-empty
// Buckets slice wins; otherwise a legacy Bucket with a field is promoted to
// a one-element list with terms/desc/10/1 filling any unset fields.
func EnsureMultiBuckets(cfg WidgetConfig) []BucketSpec {
	if len(cfg.Buckets) > 0 {
		return cfg.Buckets
	}
	if cfg.Bucket == nil || cfg.Bucket.Field == "" {
		return []BucketSpec{}
	}

	b := *cfg.Bucket
	if b.Type == "" {
		b.Type = BucketTerms
	}
	if b.Order == "" {
		b.Order = OrderDesc
	}
	if b.Size == nil {
		size := legacyBucketSize
		b.Size = &size
	}
	if b.MinDocCount == nil {
		minDocs := legacyBucketMinDocCount
		b.MinDocCount = &minDocs
	}
	return []BucketSpec{b}
}

// ToLegacyBucket picks the bucket older single-bucket readers should see: the
// first terms bucket (an empty type counts as terms), else the first bucket,
// else nil.
func ToLegacyBucket(buckets []BucketSpec) *BucketSpec {
	if len(buckets) == 0 {
		return nil
	}
	for _, b := range buckets {
		if b.Type == "" || b.Type == BucketTerms {
			legacy := b
			return &legacy
		}
	}
	legacy := buckets[0]
	return &legacy
}

// Normalize fills both bucket shapes so cfg reads the same to new and old
// consumers. It is idempotent.
func Normalize(cfg WidgetConfig) WidgetConfig {
	cfg.Buckets = EnsureMultiBuckets(cfg)
	cfg.Bucket = ToLegacyBucket(cfg.Buckets)
	return cfg
}
