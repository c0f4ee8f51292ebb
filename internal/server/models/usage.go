package models

// CategoryUsage aggregates size and count for one storage category.
type CategoryUsage struct {
	Size  int64
	Count int64
}

// UsageBreakdown reports an owner's storage consumption against the limit,
// bucketed by broad MIME category.
type UsageBreakdown struct {
	Used     int64
	Limit    int64
	Image    CategoryUsage
	Video    CategoryUsage
	Document CategoryUsage
	Other    CategoryUsage
}

// MimeUsage is one row of the per-MIME-type aggregate query.
type MimeUsage struct {
	MimeType *string
	Size     int64
	Count    int64
}

// UploadCredential is the time-limited write grant handed to a client: a
// presigned PUT URL bound to Key.
type UploadCredential struct {
	URL string
	Key string
}
