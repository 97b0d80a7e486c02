package fsutil

// Permission bits used for files and directories zpkg creates.
const (
	FileModeDefault = 0o644 // package content and the load file
	FileModeSecure  = 0o640 // downloads, state and config with credentials

	DirModeDefault  = 0o755
	DirModeSecure   = 0o750
	DirModePrivate  = 0o700 // cache and staging
	DirModeReadOnly = 0o555
)
