package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a backend identifier. The API sends ids as JSON numbers or strings;
// both decode to the same text.
type ID string

// String returns the id text.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON number, a string or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("parse id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}
