package constants

const (
	MsgSyncStarted        = "Synchronization started"
	MsgSyncAlreadyRunning = "A synchronization is already running"
	MsgSourceUnchanged    = "Source has not changed since the last synchronization"
	MsgSyncCanceled       = "Cancellation requested"
	MsgNoSyncRunning      = "No synchronization is running"
	MsgStaleRun           = "Interrupted by service restart"
	MsgSourceNotSet       = "No source URL configured"
)
