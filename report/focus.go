/*
focus.go - The closed focus-area enum

A focus area selects exactly one report template. Parsing happens before any
I/O; an unrecognized value never reaches the template selector.
*/
package report

import "fmt"

// FocusArea selects which analytical emphasis a report renders.
type FocusArea string

const (
	FocusComprehensive FocusArea = "comprehensive"
	FocusBehavioral    FocusArea = "behavioral"
	FocusSkill         FocusArea = "skill"
	FocusIntervention  FocusArea = "intervention"
	FocusSensory       FocusArea = "sensory"
	FocusEnvironmental FocusArea = "environmental"
)

// FocusAreas lists the closed enum, in presentation order.
var FocusAreas = []FocusArea{
	FocusComprehensive,
	FocusBehavioral,
	FocusSkill,
	FocusIntervention,
	FocusSensory,
	FocusEnvironmental,
}

// ParseFocusArea validates a client-supplied focus area. The empty string
// defaults to comprehensive; anything outside the enum fails with
// ErrInvalidFocusArea.
func ParseFocusArea(s string) (FocusArea, error) {
	if s == "" {
		return FocusComprehensive, nil
	}
	for _, fa := range FocusAreas {
		if FocusArea(s) == fa {
			return fa, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFocusArea, s)
}
