package engine

import "errors"

// Caller-misuse errors. Data-quality problems never surface as errors; they
// become warnings or absent cards.
var (
	ErrUnknownEntityType      = errors.New("unknown entity type")
	ErrFieldRequired          = errors.New("field identifier is required")
	ErrPercentageBaseRequired = errors.New("percentage base is required")
	ErrInvalidPercentageBase  = errors.New("invalid percentage base")
	ErrInvalidDisplayCount    = errors.New("invalid display count")
)
