package repo

import (
	"encoding/json"
	"fmt"
	"time"

	"trash-notify/internal/weekly"
)

// Item is the persisted layout of a user record. The setting index order
// (Monday first) and the numeric state encoding are shared with records
// written by earlier deployments and must not change.
type Item struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Setting []string `json:"setting"`
	State   string   `json:"state"`
	Create  string   `json:"create"`
}

// codec converts between records and items, interpreting timestamps in loc.
type codec struct {
	loc *time.Location
}

func newCodec(loc *time.Location) codec {
	if loc == nil {
		loc = time.UTC
	}
	return codec{loc: loc}
}

func (c codec) item(rec *weekly.Record) Item {
	setting := make([]string, weekly.Days)
	copy(setting, rec.Notes[:])
	var created string
	if !rec.CreatedAt.IsZero() {
		created = rec.CreatedAt.In(c.loc).Format(weekly.CreatedLayout)
	}
	return Item{
		ID:      rec.ID,
		Name:    rec.Name,
		Setting: setting,
		State:   rec.State.String(),
		Create:  created,
	}
}

func (c codec) record(it Item) (*weekly.Record, error) {
	state, err := weekly.ParseDialogState(it.State)
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", it.ID, err)
	}
	rec := &weekly.Record{
		ID:    it.ID,
		Name:  it.Name,
		Notes: weekly.NormalizeNotes(it.Setting),
		State: state,
	}
	if it.Create != "" {
		created, err := time.ParseInLocation(weekly.CreatedLayout, it.Create, c.loc)
		if err != nil {
			return nil, fmt.Errorf("decode record %s created: %w", it.ID, err)
		}
		rec.CreatedAt = created
	}
	return rec, nil
}

func encodeSetting(notes []string) (string, error) {
	data, err := json.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("encode setting: %w", err)
	}
	return string(data), nil
}

func decodeSetting(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var notes []string
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return nil, fmt.Errorf("decode setting: %w", err)
	}
	return notes, nil
}

// encodeField validates value for field and returns its stored text form.
func encodeField(field Field, value any) (string, error) {
	switch field {
	case FieldName:
		name, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("field %s expects string, got %T", field, value)
		}
		return name, nil
	case FieldState:
		state, ok := value.(weekly.DialogState)
		if !ok {
			return "", fmt.Errorf("field %s expects weekly.DialogState, got %T", field, value)
		}
		if !state.Valid() {
			return "", fmt.Errorf("field %s: invalid dialog state %d", field, state)
		}
		return state.String(), nil
	case FieldSetting:
		switch notes := value.(type) {
		case [weekly.Days]string:
			return encodeSetting(notes[:])
		case []string:
			if len(notes) != weekly.Days {
				return "", fmt.Errorf("field %s expects %d notes, got %d", field, weekly.Days, len(notes))
			}
			return encodeSetting(notes)
		default:
			return "", fmt.Errorf("field %s expects notes, got %T", field, value)
		}
	default:
		return "", fmt.Errorf("unknown field %q", field)
	}
}
