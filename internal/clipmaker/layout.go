package clipmaker

import (
	"fmt"

	"biliwalle/internal/config"
	"biliwalle/internal/protocol"
	"biliwalle/internal/services"
)

// Protocol columns read by the clip workflow.
const (
	ColumnOutput  = "Output_file"
	ColumnAudio   = "Audio_file"
	ColumnTestID  = "Test_trial_ID"
	ColumnTrainID = "Training_trial_ID"
	ColumnLeft    = "Left"
	ColumnRight   = "Right"
	ColumnObject  = "Object"
)

// slot is one object on the canvas: the protocol column naming it, the
// video_setting.objects entry placing it, and the glob suffix after the
// prefix.
type slot struct {
	Column    string
	Placement config.ObjectPlacement
	Suffix    string
}

type layout struct {
	Name  string
	Slots []slot
}

// detectLayout picks the layout from the protocol columns and checks that
// every object it needs has a placement.
func detectLayout(table *protocol.Table, video config.VideoSetting) (layout, error) {
	var l layout
	switch {
	case table.Has(ColumnTestID):
		l = layout{Name: "test", Slots: []slot{
			{Column: ColumnLeft, Suffix: "*"},
			{Column: ColumnRight, Suffix: "*"},
		}}
	case table.Has(ColumnTrainID):
		l = layout{Name: "training", Slots: []slot{
			{Column: ColumnObject, Suffix: "_*"},
		}}
	default:
		return layout{}, services.Wrap(
			services.ErrInvalidConfiguration,
			"clips",
			"layout",
			fmt.Sprintf("protocol has neither %s nor %s; check the protocol csv format", ColumnTestID, ColumnTrainID),
			nil,
		)
	}

	columns := []string{ColumnOutput, ColumnAudio}
	for i, s := range l.Slots {
		placement, ok := video.Objects[s.Column]
		if !ok {
			return layout{}, services.Wrap(services.ErrInvalidConfiguration, "clips", "layout",
				fmt.Sprintf("video_setting.objects.%s is required for a %s protocol", s.Column, l.Name), nil)
		}
		l.Slots[i].Placement = placement
		columns = append(columns, s.Column)
	}
	if err := table.Require(columns...); err != nil {
		return layout{}, err
	}
	return l, nil
}

// centerToTopLeft converts a center position to the top-left corner of a
// width x height box.
func centerToTopLeft(centerX, centerY, width, height int) (int, int) {
	return centerX - width/2, centerY - height/2
}
