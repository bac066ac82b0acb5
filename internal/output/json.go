package output

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// WriteJSON writes v as pretty-printed JSON to the writer.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output to JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON output: %w", err)
	}
	_, err = w.Write([]byte("\n"))
	return err
}
