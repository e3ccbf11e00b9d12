package report

import (
	"encoding/json"
	"io"
)

// JSONOutput is the §6 report JSON shape.
type JSONOutput struct {
	Valid    bool         `json:"valid"`
	Version  string       `json:"version,omitempty"`
	Profile  string       `json:"profile,omitempty"`
	Messages []Diagnostic `json:"messages"`
}

// WriteJSON writes the report in the §6 JSON shape to w.
func WriteJSON(w io.Writer, valid bool, version, profile string, messages []Diagnostic) error {
	out := JSONOutput{Valid: valid, Version: version, Profile: profile, Messages: messages}
	if out.Messages == nil {
		out.Messages = []Diagnostic{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
