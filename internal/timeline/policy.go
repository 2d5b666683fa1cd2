package timeline

import (
	"fmt"
	"strings"
	"time"

	"biliwalle/internal/services"
)

// PolicyKind selects the padding variant.
type PolicyKind string

const (
	PolicyUniform PolicyKind = "uniform"
	PolicyPerRow  PolicyKind = "per_row"
)

// ParsePolicyKind maps a configuration value to a PolicyKind.
func ParsePolicyKind(value string) (PolicyKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "uniform", "v1":
		return PolicyUniform, nil
	case "per_row", "per-row", "perrow", "v2":
		return PolicyPerRow, nil
	default:
		return "", services.Wrap(services.ErrInvalidConfiguration, "timeline", "policy", fmt.Sprintf("unknown padding policy %q (want uniform or per_row)", value), nil)
	}
}

// Location names where the uniform policy's additional padding is added.
type Location string

const (
	LocationStart  Location = "start"
	LocationMiddle Location = "middle"
	LocationEnd    Location = "end"
)

// ParseLocation maps a configuration value to a Location. "interval" is
// accepted as an alias for middle.
func ParseLocation(value string) (Location, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "start":
		return LocationStart, nil
	case "middle", "interval":
		return LocationMiddle, nil
	case "end":
		return LocationEnd, nil
	default:
		return "", services.Wrap(services.ErrInvalidConfiguration, "timeline", "policy", fmt.Sprintf("unknown additional padding location %q (want start, middle, or end)", value), nil)
	}
}

// Placement says whether a per-row silence precedes or follows its audio.
type Placement string

const (
	PlaceBefore Placement = "before"
	PlaceAfter  Placement = "after"
)

// ParsePlacement maps a configuration or protocol value to a Placement.
func ParsePlacement(value string) (Placement, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "before":
		return PlaceBefore, nil
	case "after":
		return PlaceAfter, nil
	default:
		return "", services.Wrap(services.ErrInvalidConfiguration, "timeline", "placement", fmt.Sprintf("unknown padding placement %q (want before or after)", value), nil)
	}
}

// UniformPolicy applies the same padding between every pair of clips.
type UniformPolicy struct {
	Start              time.Duration
	Interval           time.Duration
	End                time.Duration
	Additional         time.Duration
	AdditionalLocation Location
}

// PerRowPolicy lets every item carry its own padding; Start and End apply once.
type PerRowPolicy struct {
	Start time.Duration
	End   time.Duration
}

// Policy is a tagged union over the padding variants. Only the field matching
// Kind is read.
type Policy struct {
	Kind    PolicyKind
	Uniform UniformPolicy
	PerRow  PerRowPolicy
}

// Uniform builds a uniform Policy.
func Uniform(p UniformPolicy) Policy {
	return Policy{Kind: PolicyUniform, Uniform: p}
}

// PerRow builds a per-row Policy.
func PerRow(p PerRowPolicy) Policy {
	return Policy{Kind: PolicyPerRow, PerRow: p}
}

// WithAdditional returns a copy of a uniform policy with the per-group
// additional padding set. Other variants are returned unchanged.
func (p Policy) WithAdditional(d time.Duration) Policy {
	if p.Kind == PolicyUniform {
		p.Uniform.Additional = d
	}
	return p
}

// Validate rejects negative durations and unknown enum values.
func (p Policy) Validate() error {
	switch p.Kind {
	case PolicyUniform:
		u := p.Uniform
		if err := withinBounds(
			namedDuration{"start padding", u.Start},
			namedDuration{"interval padding", u.Interval},
			namedDuration{"end padding", u.End},
			namedDuration{"additional padding", u.Additional},
		); err != nil {
			return err
		}
		if _, err := ParseLocation(string(u.AdditionalLocation)); err != nil {
			return err
		}
		return nil
	case PolicyPerRow:
		return withinBounds(
			namedDuration{"start padding", p.PerRow.Start},
			namedDuration{"end padding", p.PerRow.End},
		)
	default:
		return services.Wrap(services.ErrInvalidConfiguration, "timeline", "policy", fmt.Sprintf("unknown padding policy %q", p.Kind), nil)
	}
}

// effective resolves the additional padding into the start, interval, or
// end padding of a uniform policy.
func (u UniformPolicy) effective() (start, interval, end time.Duration) {
	start, interval, end = u.Start, u.Interval, u.End
	if u.Additional == 0 {
		return start, interval, end
	}
	switch u.AdditionalLocation {
	case LocationMiddle:
		interval += u.Additional
	case LocationEnd:
		end += u.Additional
	default:
		start += u.Additional
	}
	return start, interval, end
}

type namedDuration struct {
	name  string
	value time.Duration
}

func withinBounds(values ...namedDuration) error {
	for _, v := range values {
		if v.value < 0 {
			return services.Wrap(services.ErrInvalidConfiguration, "timeline", "policy", fmt.Sprintf("%s must be >= 0, got %s", v.name, v.value), nil)
		}
		if v.value > MaxPadding {
			return services.Wrap(services.ErrInvalidConfiguration, "timeline", "policy", fmt.Sprintf("%s must be at most %s, got %s", v.name, MaxPadding, v.value), nil)
		}
	}
	return nil
}
