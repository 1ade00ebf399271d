package model

import (
	"regexp"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfCoversEveryType(t *testing.T) {
	for tp := TypeLog; tp < typeCount; tp++ {
		assert.NotPanics(t, func() { KindOf(tp) }, "type %s", tp)
	}
	assert.Equal(t, KindGroupStart, KindOf(TypeStartGroupCollapsed))
	assert.Equal(t, KindResult, KindOf(TypeResult))
	assert.Equal(t, KindDiracCommand, KindOf(TypeDiracCommand))
}

func TestEnumParsingDefaults(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		source Source
		level  Level
		typ    Type
	}{
		{"known", "network", SourceNetwork, LevelInfo, TypeLog},
		{"unknown", "bogus", SourceOther, LevelInfo, TypeLog},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.source, ParseSource(tt.input))
			assert.Equal(t, tt.level, ParseLevel(tt.input))
			assert.Equal(t, tt.typ, ParseType(tt.input))
		})
	}
	assert.Equal(t, LevelWarning, ParseLevel("warn"))
	assert.Equal(t, LevelVerbose, ParseLevel("debug"))
	assert.Equal(t, TypeStartGroupCollapsed, ParseType("startGroupCollapsed"))
}

func TestLogMessageDecodesProtocolNames(t *testing.T) {
	raw := `{"source":"console-api","level":"warning","type":"startGroup","text":"hi","timestamp":12.5}`
	var msg LogMessage
	require.NoError(t, sonic.Unmarshal([]byte(raw), &msg))

	assert.Equal(t, SourceConsoleAPI, msg.Source)
	assert.Equal(t, LevelWarning, msg.Level)
	assert.Equal(t, TypeStartGroup, msg.Type)
	assert.Equal(t, 12.5, msg.Timestamp)
	assert.True(t, msg.IsGroupStart())
}

func TestLogMessageDecodeDefaults(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		source Source
		level  Level
	}{
		{"missing fields", `{"text":"hello","timestamp":1}`, SourceOther, LevelInfo},
		{"unknown names", `{"source":"bogus","level":"bogus","text":"hello"}`, SourceOther, LevelInfo},
		{"explicit verbose", `{"source":"xml","level":"verbose","text":"hello"}`, SourceXML, LevelVerbose},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg LogMessage
			require.NoError(t, sonic.Unmarshal([]byte(tt.raw), &msg))
			assert.Equal(t, tt.source, msg.Source)
			assert.Equal(t, tt.level, msg.Level)
			assert.Equal(t, "hello", msg.Text)
		})
	}
}

func TestLogMessageEqual(t *testing.T) {
	base := func() *LogMessage {
		return &LogMessage{
			Source:     SourceConsoleAPI,
			Level:      LevelInfo,
			Text:       "x",
			URL:        "http://a",
			Timestamp:  1,
			Parameters: []Parameter{{Type: "number", Value: float64(1)}},
		}
	}

	a, b := base(), base()
	b.Timestamp = 99
	b.ExecutionContextID = 3
	assert.True(t, a.Equal(b), "timestamp and context are not part of equality")

	c := base()
	c.Parameters[0].Value = float64(2)
	assert.False(t, a.Equal(c))

	d := base()
	d.URL = "http://b"
	assert.False(t, a.Equal(d))
}

func TestLateBoundFieldsAreSetOnce(t *testing.T) {
	msg := &LogMessage{}
	assert.True(t, msg.SetOriginating(4))
	assert.False(t, msg.SetOriginating(5))
	assert.Equal(t, int64(4), msg.OriginatingID())

	assert.True(t, msg.BindExecutionContext(7))
	assert.False(t, msg.BindExecutionContext(8))
	assert.Equal(t, 7, msg.ExecutionContextID)
}

func TestViewEntrySearchAndExport(t *testing.T) {
	e := NewViewEntry(1, &LogMessage{Text: "abcabc"}, 0)
	e.RepeatCount = 2

	n := e.SetSearchRegex(regexp.MustCompile("bc"))
	assert.Equal(t, 2, n)
	assert.Equal(t, []Range{{1, 3}, {4, 6}}, e.SearchRanges)
	assert.Equal(t, -1, e.HighlightedMatch)

	assert.Zero(t, e.SetSearchRegex(nil))
	assert.Empty(t, e.SearchRanges)

	assert.Equal(t, "abcabc\nabcabc", e.ExportString())
}

func TestNewViewEntryCollapsedGroup(t *testing.T) {
	e := NewViewEntry(1, &LogMessage{Type: TypeStartGroupCollapsed}, 0)
	assert.True(t, e.Collapsed)
	assert.Equal(t, KindGroupStart, e.Kind)
	assert.Equal(t, 1, e.RepeatCount)
}
