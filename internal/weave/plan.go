package weave

import (
	"fmt"
	"time"

	"biliwalle/internal/config"
	"biliwalle/internal/protocol"
	"biliwalle/internal/services"
	"biliwalle/internal/timeline"
)

// Plan is everything needed to produce one group's output.
type Plan struct {
	Group  string
	Output string
	Items  []timeline.Item
	Policy timeline.Policy
}

// BuildPlans validates the protocol against the audio settings and returns
// one plan per group in output order.
func BuildPlans(cfg *config.Config, table *protocol.Table) ([]Plan, error) {
	policy, err := cfg.PaddingPolicy()
	if err != nil {
		return nil, err
	}
	defaultPlacement, err := cfg.DefaultPlacement()
	if err != nil {
		return nil, err
	}

	p := cfg.Protocol
	a := cfg.AudioSetting
	required := append([]string{}, p.GroupColumns...)
	required = append(required, p.SequenceColumn, p.FileColumn, p.OutputColumn)
	switch policy.Kind {
	case timeline.PolicyPerRow:
		required = append(required, a.PaddingValueColumn)
		if a.PaddingLocationColumn != "" {
			required = append(required, a.PaddingLocationColumn)
		}
	default:
		if a.AdditionalPaddingValueColumn != "" {
			required = append(required, a.AdditionalPaddingValueColumn)
		}
	}
	if err := table.Require(required...); err != nil {
		return nil, err
	}

	groups, err := table.GroupBy(p.GroupColumns...)
	if err != nil {
		return nil, err
	}
	plans := make([]Plan, 0, len(groups))
	for i := range groups {
		group := &groups[i]
		if err := group.SortBy(p.SequenceColumn); err != nil {
			return nil, err
		}
		plan := Plan{
			Group:  group.Name(),
			Output: group.First(p.OutputColumn),
			Policy: policy,
		}
		if policy.Kind == timeline.PolicyPerRow {
			plan.Items, err = perRowItems(group, a, p.FileColumn, defaultPlacement)
		} else {
			plan.Items = uniformItems(group, p.FileColumn)
			plan.Policy, err = withAdditional(group, policy, a.AdditionalPaddingValueColumn)
		}
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", plan.Group, err)
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func uniformItems(group *protocol.Group, fileColumn string) []timeline.Item {
	items := make([]timeline.Item, 0, len(group.Rows))
	for _, row := range group.Rows {
		if source := row.Get(fileColumn); source != "" {
			items = append(items, timeline.Item{Source: source})
		}
	}
	return items
}

func perRowItems(group *protocol.Group, a config.AudioSetting, fileColumn string, fallback timeline.Placement) ([]timeline.Item, error) {
	items := make([]timeline.Item, 0, len(group.Rows))
	for _, row := range group.Rows {
		source := row.Get(fileColumn)
		if source == "" {
			continue
		}
		item := timeline.Item{Source: source, Placement: fallback}
		ms, ok, err := row.Float(a.PaddingValueColumn)
		if err != nil {
			return nil, err
		}
		if ok {
			padding, err := paddingCell(row, a.PaddingValueColumn, ms)
			if err != nil {
				return nil, err
			}
			item.Padding = &padding
		}
		if a.PaddingLocationColumn != "" {
			if raw := row.Get(a.PaddingLocationColumn); raw != "" {
				placement, err := timeline.ParsePlacement(raw)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", row.Line, err)
				}
				item.Placement = placement
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// withAdditional reads the group's additional padding from its first row.
func withAdditional(group *protocol.Group, policy timeline.Policy, column string) (timeline.Policy, error) {
	if column == "" || len(group.Rows) == 0 {
		return policy, nil
	}
	row := group.Rows[0]
	ms, ok, err := row.Float(column)
	if err != nil || !ok {
		return policy, err
	}
	additional, err := paddingCell(row, column, ms)
	if err != nil {
		return policy, err
	}
	policy = policy.WithAdditional(additional)
	return policy, policy.Validate()
}

// paddingCell converts a millisecond cell, naming the row and column when the
// value is negative or out of range.
func paddingCell(row protocol.Row, column string, ms float64) (time.Duration, error) {
	if ms < 0 {
		return 0, services.Wrap(
			services.ErrInvalidConfiguration,
			"weave",
			"plan",
			fmt.Sprintf("line %d: column %s: padding must be >= 0, got %g ms", row.Line, column, ms),
			nil,
		)
	}
	d, err := timeline.Milliseconds(ms)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: %w", row.Line, column, err)
	}
	return d, nil
}
