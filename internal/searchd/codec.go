package searchd

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/GoSim-25-26J-441/replay-search/pkg/models"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrMalformed is returned when a wire message does not carry the expected fields
var ErrMalformed = errors.New("malformed message")

// Simulated times and input values travel as JSON numbers. They stay well inside the
// range a float64 represents exactly.

func bufferToStruct(buf *models.EventBuffer) (*structpb.Struct, error) {
	events := make([]any, 0, buf.Len())
	for _, e := range buf.Events {
		events = append(events, map[string]any{
			"time":  e.Time,
			"kind":  string(e.Kind),
			"value": e.Value,
		})
	}
	return structpb.NewStruct(map[string]any{"events": events})
}

func structToBuffer(s *structpb.Struct) (*models.EventBuffer, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: event buffer is missing", ErrMalformed)
	}
	buf := models.NewEventBuffer()
	list := s.GetFields()["events"].GetListValue()
	for i, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		kind := fields["kind"].GetStringValue()
		if kind == "" {
			return nil, fmt.Errorf("%w: event %d has no kind", ErrMalformed, i)
		}
		buf.Add(int64(fields["time"].GetNumberValue()), models.InputKind(kind), int64(fields["value"].GetNumberValue()))
	}
	return buf, nil
}

func stateToStruct(state *models.SimulationState) (*structpb.Struct, error) {
	fields := make(map[string]any, len(state.Fields))
	for k, v := range state.Fields {
		fields[k] = v
	}
	return structpb.NewStruct(map[string]any{
		"race_time": state.RaceTime,
		"position":  []any{state.Position[0], state.Position[1], state.Position[2]},
		"velocity":  []any{state.Velocity[0], state.Velocity[1], state.Velocity[2]},
		"fields":    fields,
		"snapshot":  base64.StdEncoding.EncodeToString(state.Snapshot),
	})
}

func structToState(s *structpb.Struct) (*models.SimulationState, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: state is missing", ErrMalformed)
	}
	f := s.GetFields()
	raceTime, ok := f["race_time"]
	if !ok {
		return nil, fmt.Errorf("%w: state has no race_time", ErrMalformed)
	}
	state := &models.SimulationState{RaceTime: int64(raceTime.GetNumberValue())}

	var err error
	if state.Position, err = vec3(f["position"]); err != nil {
		return nil, fmt.Errorf("position: %w", err)
	}
	if v, ok := f["velocity"]; ok {
		if state.Velocity, err = vec3(v); err != nil {
			return nil, fmt.Errorf("velocity: %w", err)
		}
	}
	if extra := f["fields"].GetStructValue(); extra != nil {
		state.Fields = make(map[string]float64, len(extra.GetFields()))
		for k, v := range extra.GetFields() {
			state.Fields[k] = v.GetNumberValue()
		}
	}
	if snap := f["snapshot"].GetStringValue(); snap != "" {
		if state.Snapshot, err = base64.StdEncoding.DecodeString(snap); err != nil {
			return nil, fmt.Errorf("%w: snapshot: %v", ErrMalformed, err)
		}
	}
	return state, nil
}

func vec3(v *structpb.Value) ([3]float64, error) {
	var out [3]float64
	values := v.GetListValue().GetValues()
	if len(values) != 3 {
		return out, fmt.Errorf("%w: expected 3 components, got %d", ErrMalformed, len(values))
	}
	for i, c := range values {
		out[i] = c.GetNumberValue()
	}
	return out, nil
}

func checkpointToStruct(current, target int) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"current": current, "target": target})
}

func structToCheckpoint(s *structpb.Struct) (current, target int, err error) {
	f := s.GetFields()
	c, okC := f["current"]
	t, okT := f["target"]
	if !okC || !okT {
		return 0, 0, fmt.Errorf("%w: checkpoint needs current and target", ErrMalformed)
	}
	return int(c.GetNumberValue()), int(t.GetNumberValue()), nil
}
