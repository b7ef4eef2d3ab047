package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"journey-simulator/internal/journey"
)

type ETAMessage struct {
	Kind        journey.ETAKind `json:"kind"`
	RemainingMs int64           `json:"remainingMs"`
	Text        string          `json:"text"`
}

func NewETAMessage(e journey.ETA) ETAMessage {
	return ETAMessage{Kind: e.Kind, RemainingMs: e.Remaining.Milliseconds(), Text: journey.FormatETA(e)}
}

// StatusMessage is published once per tick for renderers.
type StatusMessage struct {
	RunID         string        `json:"runId"`
	Timestamp     time.Time     `json:"timestamp"`
	Phase         journey.Phase `json:"phase"`
	CurrentIndex  int           `json:"currentIndex"`
	CurrentName   string        `json:"currentName"`
	NextIndex     int           `json:"nextIndex"`
	NextName      string        `json:"nextName"`
	Lat           float64       `json:"lat"`
	Lng           float64       `json:"lng"`
	Progress      float64       `json:"progress"`
	SelectedIndex int           `json:"selectedIndex"`
	SelectedName  string        `json:"selectedName"`
	Tracking      bool          `json:"tracking"`
	ETA           ETAMessage    `json:"eta"`
}

func NewStatusMessage(runID string, now time.Time, s journey.Status, eta journey.ETA) StatusMessage {
	return StatusMessage{
		RunID:         runID,
		Timestamp:     now,
		Phase:         s.Phase,
		CurrentIndex:  s.CurrentIndex,
		CurrentName:   s.CurrentName,
		NextIndex:     s.NextIndex,
		NextName:      s.NextName,
		Lat:           s.Position.Lat,
		Lng:           s.Position.Lng,
		Progress:      s.Progress,
		SelectedIndex: s.SelectedIndex,
		SelectedName:  s.SelectedName,
		Tracking:      s.Tracking,
		ETA:           NewETAMessage(eta),
	}
}

type ArrivalMessage struct {
	RunID     string        `json:"runId"`
	Timestamp time.Time     `json:"timestamp"`
	Index     int           `json:"index"`
	Name      string        `json:"name"`
	Phase     journey.Phase `json:"phase"`
}

const (
	ControlSelect  = "select"
	ControlTrack   = "track"
	ControlReverse = "reverse"
	ControlRestart = "restart"
)

// ControlCommand mirrors the UI controls: station picker, follow toggle,
// direction switch and restart.
type ControlCommand struct {
	Type     string `json:"type"`
	Index    *int   `json:"index,omitempty"`
	Tracking *bool  `json:"tracking,omitempty"`
}

func DecodeControl(b []byte) (ControlCommand, error) {
	var cmd ControlCommand
	if err := json.Unmarshal(b, &cmd); err != nil {
		return ControlCommand{}, fmt.Errorf("decode control: %w", err)
	}
	switch cmd.Type {
	case ControlSelect:
		if cmd.Index == nil {
			return ControlCommand{}, errors.New("select requires index")
		}
	case ControlTrack:
		if cmd.Tracking == nil {
			return ControlCommand{}, errors.New("track requires tracking")
		}
	case ControlReverse, ControlRestart:
	default:
		return ControlCommand{}, fmt.Errorf("unknown control type %q", cmd.Type)
	}
	return cmd, nil
}
