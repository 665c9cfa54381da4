package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/walletscan/walletscan/internal/types"
)

// WriteJSON writes findings as an indented JSON array. No findings is "[]".
func WriteJSON(w io.Writer, findings []types.Finding) error {
	if findings == nil {
		findings = []types.Finding{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(findings); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ReadJSON decodes an array written by WriteJSON.
func ReadJSON(r io.Reader) ([]types.Finding, error) {
	var out []types.Finding
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}
