package constants

const (
	// PersistedHistorySize bounds each prompt's persisted history ring.
	PersistedHistorySize = 300

	// ExportChunkSize is the number of lines written per export batch.
	ExportChunkSize = 350

	// MinimumRowHeight is the smallest height of a rendered entry, in terminal rows.
	MinimumRowHeight = 1

	// DiracLogMarker prefixes console messages that carry Dirac REPL output.
	DiracLogMarker = "~~$DIRAC-LOG$~~"
)

// Prompt surface identifiers.
const (
	PromptJS    = "js"
	PromptDirac = "dirac"
)
