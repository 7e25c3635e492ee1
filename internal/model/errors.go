package model

import "github.com/rotisserie/eris"

// Error kinds shared by the scoring and selection engine. Callers compare with
// eris.Is or errors.Is; the engine wraps them with context.
var (
	// ErrInsufficientData is returned when a computation needs at least one
	// reference facility or zone and none was supplied.
	ErrInsufficientData = eris.New("insufficient data")

	// ErrDegenerateInput marks zero normalization denominators. The scoring
	// engine handles it locally by treating the contribution as zero.
	ErrDegenerateInput = eris.New("degenerate input")

	// ErrNoQualifyingCandidates is the soft outcome of a suggestion run in which
	// no candidate passed scoring and thresholds.
	ErrNoQualifyingCandidates = eris.New("no qualifying candidates")

	// ErrInvalidRecord is returned for malformed hospital or zone records.
	ErrInvalidRecord = eris.New("invalid record")

	// ErrInvalidOptions is returned for out-of-range engine options.
	ErrInvalidOptions = eris.New("invalid options")
)
