package ports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// IDSequence is an ordered list of ids. It decodes from a JSON array of
// numbers or numeric strings, or from a single comma-separated string, so
// drag-and-drop clients can post either form.
type IDSequence []int64

func (s *IDSequence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		return s.UnmarshalParam(raw)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("order must be an array or a comma-separated string: %w", err)
	}
	out := make(IDSequence, 0, len(items))
	for _, item := range items {
		text := strings.Trim(string(bytes.TrimSpace(item)), `"`)
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %s in order", string(item))
		}
		out = append(out, id)
	}
	*s = out
	return nil
}

// UnmarshalParam parses "3,1,2". Blank entries are skipped.
func (s *IDSequence) UnmarshalParam(param string) error {
	out := IDSequence{}
	for _, part := range strings.Split(param, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q in order", part)
		}
		out = append(out, id)
	}
	*s = out
	return nil
}
