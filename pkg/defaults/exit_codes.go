package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // Scan finished and the report was written
	ExitFatal         = 1 // Target page unreachable, no report written
	ExitUserError     = 2 // Invalid arguments or configuration
	ExitOutputError   = 3 // Report could not be written
	ExitInternalError = 4 // Unexpected internal error
)
