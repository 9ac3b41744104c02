package constants

const (
	CountCatalog = `
	SELECT
		(SELECT COUNT(*) FROM artworks WHERE is_deleted = false) AS artworks,
		(SELECT COUNT(*) FROM artists) AS artists,
		(SELECT COUNT(*) FROM museums) AS museums,
		(SELECT COUNT(*) FROM domains) AS domains,
		(SELECT COUNT(*) FROM techniques) AS techniques,
		(SELECT COUNT(*) FROM periods) AS periods
	`

	CountRunningSyncs = `
	SELECT COUNT(*) FROM sync_logs WHERE status = 'Running'
	`
)
