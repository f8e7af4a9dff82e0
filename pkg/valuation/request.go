package valuation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// strictFields are the request attributes whose JSON type errors fail the
// decode. Every other attribute is optional and is dropped when it does not
// parse, so its calculator sees it as absent.
var strictFields = map[string]bool{
	"make":       true,
	"model":      true,
	"year":       true,
	"base_price": true,
}

// UnmarshalJSON decodes a request, leaving optional attributes unset when
// their value has the wrong JSON type (for example "mileage":"unknown").
// Unknown keys are ignored.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an object; let the struct decoder report it.
		return json.Unmarshal(data, (*plain)(r))
	}
	for key, raw := range fields {
		if strictFields[strings.ToLower(key)] {
			continue
		}
		one, err := json.Marshal(map[string]json.RawMessage{key: raw})
		if err != nil {
			delete(fields, key)
			continue
		}
		var scratch plain
		if json.Unmarshal(one, &scratch) != nil {
			delete(fields, key)
		}
	}
	kept, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(kept, (*plain)(r))
}
