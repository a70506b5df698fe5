package main

// Exit codes shared by all commands.
const (
	ExitSuccess            = 0 // Success
	ExitError              = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError        = 2 // Configuration error, or artifact not found
	ExitDataError          = 3 // Data error (malformed input, validation failure)
	ExitEncoderUnavailable = 4 // Embedding backend not reachable
	ExitModelNotFound      = 5 // Embedding model not found on the backend
	ExitChecksumMismatch   = 6 // Artifact failed checksum verification
)
