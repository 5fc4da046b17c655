package record

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// Decode reads one JSON object into a MapView. Numbers are kept as
// json.Number so that an integer 0 stays numeric and amounts keep their
// exact decimal digits.
func Decode(r io.Reader) (MapView, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("record: read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: JSON input is not an object", ErrMalformedRecord)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("record: decode JSON: %w", err)
	}
	return MapView(m), nil
}
