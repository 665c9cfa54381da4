package core

import (
	"io"

	"github.com/walletscan/walletscan/internal/report"
)

// MarshalFindings writes findings in the JSON artifact format.
func MarshalFindings(w io.Writer, findings []Finding) error {
	return report.WriteJSON(w, findings)
}

// UnmarshalFindings decodes a JSON artifact.
func UnmarshalFindings(r io.Reader) ([]Finding, error) {
	return report.ReadJSON(r)
}
