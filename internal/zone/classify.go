package zone

// #region thresholds
// Classification thresholds. Bands are half-open: a zone sitting exactly on
// a boundary belongs to the higher band. 1.0 is reachable after clamping and
// classifies as critical.
const (
	calmUpper           = 0.4
	overstimulatedUpper = 0.7
	emergentUpper       = 0.9
)

// #endregion thresholds

// #region classify
// Classify derives the discrete state from an activity level. It is total
// over the clamped domain: callers clamp first, so values outside [0, 1]
// fall into the outermost bands rather than erroring.
func Classify(activity float64) State {
	switch {
	case activity < calmUpper:
		return StateCalm
	case activity < overstimulatedUpper:
		return StateOverstimulated
	case activity < emergentUpper:
		return StateEmergent
	default:
		return StateCritical
	}
}

// #endregion classify

// #region clamp
// Clamp restricts v to [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion clamp
