package model

import "fmt"

// Source identifies the subsystem that produced a console message.
type Source int

const (
	SourceXML Source = iota
	SourceJavaScript
	SourceNetwork
	SourceConsoleAPI
	SourceStorage
	SourceAppCache
	SourceRendering
	SourceCSS
	SourceSecurity
	SourceDeprecation
	SourceWorker
	SourceViolation
	SourceIntervention
	SourceOther
)

var sourceNames = [...]string{
	SourceXML:          "xml",
	SourceJavaScript:   "javascript",
	SourceNetwork:      "network",
	SourceConsoleAPI:   "console-api",
	SourceStorage:      "storage",
	SourceAppCache:     "appcache",
	SourceRendering:    "rendering",
	SourceCSS:          "css",
	SourceSecurity:     "security",
	SourceDeprecation:  "deprecation",
	SourceWorker:       "worker",
	SourceViolation:    "violation",
	SourceIntervention: "intervention",
	SourceOther:        "other",
}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return sourceNames[s]
}

// ParseSource maps a protocol name to a Source. Unknown names map to SourceOther.
func ParseSource(name string) Source {
	for i, n := range sourceNames {
		if n == name {
			return Source(i)
		}
	}
	return SourceOther
}

func (s Source) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Source) UnmarshalText(text []byte) error {
	*s = ParseSource(string(text))
	return nil
}

// Level is the severity of a console message.
type Level int

const (
	LevelVerbose Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

// Levels lists every level in menu order.
var Levels = []Level{LevelVerbose, LevelInfo, LevelWarning, LevelError}

var levelNames = [...]string{
	LevelVerbose: "verbose",
	LevelInfo:    "info",
	LevelWarning: "warning",
	LevelError:   "error",
}

var levelTitles = [...]string{
	LevelVerbose: "Verbose",
	LevelInfo:    "Info",
	LevelWarning: "Warnings",
	LevelError:   "Errors",
}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Title is the human readable label used by the level menu.
func (l Level) Title() string {
	if l < 0 || int(l) >= len(levelTitles) {
		return l.String()
	}
	return levelTitles[l]
}

// ParseLevel maps a protocol name to a Level. The console API aliases
// ("log", "debug", "warn") are accepted; anything else maps to LevelInfo.
func ParseLevel(name string) Level {
	switch name {
	case "verbose", "debug":
		return LevelVerbose
	case "info", "log":
		return LevelInfo
	case "warning", "warn":
		return LevelWarning
	case "error":
		return LevelError
	}
	return LevelInfo
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(text []byte) error {
	*l = ParseLevel(string(text))
	return nil
}

// Type is the console message type.
type Type int

const (
	TypeLog Type = iota
	TypeDir
	TypeDirXML
	TypeTable
	TypeTrace
	TypeClear
	TypeStartGroup
	TypeStartGroupCollapsed
	TypeEndGroup
	TypeAssert
	TypeResult
	TypeProfile
	TypeProfileEnd
	TypeCommand
	TypeDiracCommand
	TypeDiracMarkup

	typeCount
)

var typeNames = [...]string{
	TypeLog:                 "log",
	TypeDir:                 "dir",
	TypeDirXML:              "dirxml",
	TypeTable:               "table",
	TypeTrace:               "trace",
	TypeClear:               "clear",
	TypeStartGroup:          "startGroup",
	TypeStartGroupCollapsed: "startGroupCollapsed",
	TypeEndGroup:            "endGroup",
	TypeAssert:              "assert",
	TypeResult:              "result",
	TypeProfile:             "profile",
	TypeProfileEnd:          "profileEnd",
	TypeCommand:             "command",
	TypeDiracCommand:        "diracCommand",
	TypeDiracMarkup:         "diracMarkup",
}

func (t Type) String() string {
	if t < 0 || t >= typeCount {
		return fmt.Sprintf("type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType maps a protocol name to a Type. Unknown names map to TypeLog.
func ParseType(name string) Type {
	for i, n := range typeNames {
		if n == name {
			return Type(i)
		}
	}
	return TypeLog
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(text []byte) error {
	*t = ParseType(string(text))
	return nil
}
