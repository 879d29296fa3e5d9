// Package export serializes a parsed plan into a stable JSON document for
// CI pipelines and other tooling.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/CaptShanks/tfreview/internal/parser"
)

// FormatVersion identifies the envelope layout. Consumers should reject
// documents with a version they do not understand.
const FormatVersion = 1

// Document is the JSON envelope wrapped around a plan.
type Document struct {
	FormatVersion int          `json:"format_version"`
	GeneratedAt   time.Time    `json:"generated_at"`
	Plan          *parser.Plan `json:"plan"`
}

// Marshal renders a plan as an indented JSON document.
func Marshal(plan *parser.Plan) ([]byte, error) {
	doc := Document{
		FormatVersion: FormatVersion,
		GeneratedAt:   time.Now().UTC().Truncate(time.Second),
		Plan:          plan,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding plan document: %w", err)
	}
	return append(data, '\n'), nil
}

// Unmarshal reads a document produced by Marshal back into memory.
func Unmarshal(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding plan document: %w", err)
	}
	if doc.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("unsupported format version %d", doc.FormatVersion)
	}
	return &doc, nil
}
