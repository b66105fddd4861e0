// Package persona renders the cosmetic advisor layer: canned analysis text
// templated over an interaction counter and a zone-context record. Every
// function is pure; callers snapshot the engine first and pass plain values,
// so this package never touches the regulator's lock.
package persona

import (
	"fmt"
	"strings"

	"github.com/citygrid/homeostat/internal/zone"
)

// #region stage

// Stage is the advisor's evolution level, derived from the interaction
// counter alone.
type Stage string

const (
	StageBeginner     Stage = "beginner"
	StageIntermediate Stage = "intermediate"
	StageAdvanced     Stage = "advanced"
	StageExpert       Stage = "expert"
	StageAutonomous   Stage = "autonomous"
)

// Evolution thresholds: interactions needed to reach each stage.
const (
	intermediateAt = 10
	advancedAt     = 25
	expertAt       = 50
	autonomousAt   = 100
)

// StageFor maps an interaction count to an evolution stage.
func StageFor(interactions int) Stage {
	switch {
	case interactions >= autonomousAt:
		return StageAutonomous
	case interactions >= expertAt:
		return StageExpert
	case interactions >= advancedAt:
		return StageAdvanced
	case interactions >= intermediateAt:
		return StageIntermediate
	default:
		return StageBeginner
	}
}

// #endregion stage

// #region context

// ZoneContext carries the plain values the advisor speaks about. Zero value
// means "no specific zone": the advisor answers about the system as a whole.
type ZoneContext struct {
	ZoneName        string
	Activity        float64
	State           zone.State
	AverageActivity float64
	SystemHealth    float64
}

// #endregion context

// #region topic

type topic int

const (
	topicGeneral topic = iota
	topicStatus
	topicAdvice
)

var statusKeywords = []string{
	"status", "state", "how is", "how are", "current", "report",
	"activity", "health", "balance",
}

var adviceKeywords = []string{
	"recommend", "suggest", "advice", "should i", "what can",
	"optimize", "improve", "fix", "calm down", "stabilize",
}

// classifyTopic picks a response family via keyword heuristics. No model call.
func classifyTopic(message string) topic {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, kw := range adviceKeywords {
		if strings.Contains(lower, kw) {
			return topicAdvice
		}
	}
	for _, kw := range statusKeywords {
		if strings.Contains(lower, kw) {
			return topicStatus
		}
	}
	return topicGeneral
}

// #endregion topic

// #region respond

// Respond renders a reply to message given the current interaction count and
// zone context. Same inputs always produce the same text.
func Respond(message string, interactions int, ctx ZoneContext) string {
	stage := StageFor(interactions)

	switch classifyTopic(message) {
	case topicStatus:
		return statusLine(stage, ctx)
	case topicAdvice:
		return adviceLine(stage, ctx)
	default:
		return fmt.Sprintf("%s I'm tracking %s. Ask me about zone status or for a recommendation.",
			greeting(stage), subject(ctx))
	}
}

func statusLine(stage Stage, ctx ZoneContext) string {
	if ctx.ZoneName == "" {
		base := fmt.Sprintf("System average activity is %.2f with health %.2f.",
			ctx.AverageActivity, ctx.SystemHealth)
		if stage == StageBeginner || stage == StageIntermediate {
			return base
		}
		return base + " " + trendRemark(ctx.AverageActivity)
	}

	base := fmt.Sprintf("%s shows activity %.2f and reads %s.",
		ctx.ZoneName, ctx.Activity, ctx.State)
	if stage == StageBeginner {
		return base
	}
	return base + " " + trendRemark(ctx.Activity)
}

func adviceLine(stage Stage, ctx ZoneContext) string {
	name := ctx.ZoneName
	if name == "" {
		name = "the busiest zone"
	}

	switch ctx.State {
	case zone.StateCritical:
		return fmt.Sprintf("%s is critical. Apply a strong negative influence to %s now and let the controller settle it.",
			name, name)
	case zone.StateEmergent:
		return fmt.Sprintf("%s is running hot. A small negative influence would shorten its path back to equilibrium.", name)
	case zone.StateOverstimulated:
		if stage == StageBeginner || stage == StageIntermediate {
			return fmt.Sprintf("%s is slightly elevated. No action needed; the controller will pull it back.", name)
		}
		return fmt.Sprintf("%s is slightly elevated. Holding is fine, though a -0.05 nudge converges faster.", name)
	default:
		return fmt.Sprintf("%s is calm. Keep monitoring; the system is doing the work.", name)
	}
}

func greeting(stage Stage) string {
	switch stage {
	case StageAutonomous:
		return "Operating autonomously."
	case StageExpert:
		return "Expert analysis online."
	case StageAdvanced:
		return "Pattern models loaded."
	case StageIntermediate:
		return "Learning your city."
	default:
		return "Hello."
	}
}

func subject(ctx ZoneContext) string {
	if ctx.ZoneName == "" {
		return "all zones"
	}
	return ctx.ZoneName
}

func trendRemark(activity float64) string {
	if activity > 0.5 {
		return "Pressure is above target; expect downward correction."
	}
	return "Below target; the controller is easing it upward."
}

// #endregion respond
