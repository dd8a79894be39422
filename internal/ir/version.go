package ir

// Version constants for journal records and the engine.
const (
	// RecordVersion is the schema version of journalled action records.
	RecordVersion = "1"

	// EngineVersion is the marginalia engine version.
	EngineVersion = "0.1.0"
)
