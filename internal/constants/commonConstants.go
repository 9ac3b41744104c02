package constants

import "time"

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixCatalogCounts CachePrefix = "CATALOG_COUNTS"
)

// CatalogCountsTTL bounds how stale the counts on the status endpoint can be.
const CatalogCountsTTL = 30 * time.Second
