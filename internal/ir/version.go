package ir

// Version constants for the IR schema and compiler.
const (
	// IRVersion is the IR schema version.
	IRVersion = "1"

	// EngineVersion is the sqlir engine version.
	EngineVersion = "0.1.0"
)
