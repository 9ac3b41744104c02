package constants

// Sync types recorded on sync_logs
const (
	SyncTypeManual    = "manual"
	SyncTypeAutomatic = "automatic"
)

// Sync statuses recorded on sync_logs
const (
	SyncStatusRunning   = "Running"
	SyncStatusCompleted = "Completed"
	SyncStatusFailed    = "Failed"
	SyncStatusCanceled  = "Canceled"
)
