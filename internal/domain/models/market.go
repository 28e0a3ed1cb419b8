package models

import (
	"strings"
	"time"
)

// Importance levels for macro calendar events.
const (
	ImportanceLow    = "low"
	ImportanceMedium = "medium"
	ImportanceHigh   = "high"
)

// Bar is a single one-minute price bar for a currency pair.
type Bar struct {
	Ts   time.Time
	Pair string
	Mid  float64
}

// Tick is a raw quote from the rate stream before bucketing into bars.
type Tick struct {
	Pair      string
	Timestamp int64 // unix seconds
	Mid       float64
}

// MacroEvent is a read-only macro calendar entry. Only high-importance
// events feed feature computation.
type MacroEvent struct {
	Ts         time.Time
	Currency   string
	Importance string
}

// FeatureRow is one computed feature vector per bar timestamp.
// Rows are only produced once every rolling window is fully warmed up.
type FeatureRow struct {
	Ts               time.Time
	Pair             string
	Ret1m            float64
	Ret5m            float64
	Ret15m           float64
	Vol5m            float64
	Vol15m           float64
	SMA5             float64
	SMA15            float64
	Momentum15m      float64
	MinutesToEvent   int  // -1 when no qualifying future event is known
	IsHighImportance int8 // 1 when the next high event is at most 90 minutes away
}

// SplitPair splits "USDINR" into ("USD", "INR").
func SplitPair(pair string) (string, string) {
	p := strings.ToUpper(pair)
	if len(p) < 6 {
		return p, ""
	}
	return p[:3], p[3:6]
}
