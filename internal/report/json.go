package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/tracker/internal/ir"
)

type jsonReporter struct {
	*collector
}

func (r *jsonReporter) Generate(path string) error {
	data, err := RenderJSON(r.document())
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// RenderJSON renders a document as indented JSON without HTML escaping.
func RenderJSON(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(struct {
		FormatVersion string `json:"format_version"`
		Document
	}{ir.FormatVersion, doc})
	if err != nil {
		return nil, fmt.Errorf("render json report: %w", err)
	}
	return buf.Bytes(), nil
}
