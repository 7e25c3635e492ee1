package model

import "github.com/sells-group/hospital-siting/internal/geo"

// CandidatePoint is a scored location considered during one suggestion run.
type CandidatePoint struct {
	Index      int            `json:"index"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Score      float64        `json:"score"`
}

// Suggestion is a ranked site recommended for a new hospital.
type Suggestion struct {
	Rank    int                `json:"rank"`
	Name    string             `json:"name"`
	Score   float64            `json:"score"`
	Center  geo.Coordinate     `json:"center"`
	ZoneID  string             `json:"zoneId,omitempty"`
	Details map[string]float64 `json:"details"`
}

// Recommendation is one entry returned by an external narrative generator for
// a list of high-priority zones. Its content is opaque to the engine.
type Recommendation struct {
	Location string `json:"location"`
	Reason   string `json:"reason"`
}
