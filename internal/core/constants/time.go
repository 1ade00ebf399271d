package constants

import "time"

const (
	// Search scanning
	SearchSliceBudget     = 100 * time.Millisecond
	SearchRescheduleDelay = 100 * time.Millisecond

	// Viewport
	StickToBottomSettleDelay = 200 * time.Millisecond
	ViewportRefreshInterval  = 50 * time.Millisecond

	// Settings are written at most this often
	SettingsSaveDelay = 500 * time.Millisecond

	// Evaluator default timeout
	EvaluateTimeout = 30 * time.Second
)
