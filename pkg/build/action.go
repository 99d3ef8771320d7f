package build

import (
	"encoding/json"
	"fmt"

	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
)

// Action is anything attached to a build, such as badges and summaries.
type Action interface {
	// ActionType returns the name used to tell action types apart when
	// persisting them.
	ActionType() string
}

// RawAction is an action of a type this package does not know about. Its
// data is kept as-is so it survives being loaded and saved again.
type RawAction struct {
	Type string
	Data json.RawMessage
}

// ActionType implements the Action interface.
func (a *RawAction) ActionType() string { return a.Type }

// Actions is an ordered list of build actions.
type Actions []Action

type actionJSON struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON implements json.Marshaler
func (actions Actions) MarshalJSON() ([]byte, error) {
	list := make([]actionJSON, 0, len(actions))
	for i, a := range actions {
		if raw, ok := a.(*RawAction); ok {
			list = append(list, actionJSON{Type: raw.Type, Data: raw.Data})
			continue
		}
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode action #%d of type %q: %w", i, a.ActionType(), err)
		}
		list = append(list, actionJSON{Type: a.ActionType(), Data: data})
	}
	return json.Marshal(list)
}

// UnmarshalJSON implements json.Unmarshaler
func (actions *Actions) UnmarshalJSON(data []byte) error {
	var list []actionJSON
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	result := make(Actions, 0, len(list))
	for i, a := range list {
		action, err := decodeAction(a)
		if err != nil {
			return fmt.Errorf("decode action #%d of type %q: %w", i, a.Type, err)
		}
		result = append(result, action)
	}
	*actions = result
	return nil
}

func decodeAction(a actionJSON) (Action, error) {
	switch a.Type {
	case badge.ActionType:
		var b badge.Badge
		if err := json.Unmarshal(a.Data, &b); err != nil {
			return nil, err
		}
		return &b, nil
	case badge.SummaryActionType:
		s := badge.NewSummary("")
		if err := json.Unmarshal(a.Data, s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return &RawAction{Type: a.Type, Data: a.Data}, nil
	}
}
