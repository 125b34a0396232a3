package rag

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/upb/room-qa/services/providers"
)

// ResponseShape is one of the recognized generation response layouts
type ResponseShape int

const (
	// ShapeText is a direct top-level text field
	ShapeText ResponseShape = iota
	// ShapeOutputText is the alternate output_text field
	ShapeOutputText
	// ShapeContentParts is candidates[0].content.parts[].text
	ShapeContentParts
)

// String returns the shape name
func (s ResponseShape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeOutputText:
		return "output_text"
	case ShapeContentParts:
		return "content_parts"
	default:
		return "unknown"
	}
}

// shapePreference is the order shapes are probed in
var shapePreference = []ResponseShape{ShapeText, ShapeOutputText, ShapeContentParts}

func (s ResponseShape) extract(resp *providers.GenerateResponse) string {
	switch s {
	case ShapeText:
		return strings.TrimSpace(resp.Text)
	case ShapeOutputText:
		return strings.TrimSpace(resp.OutputText)
	case ShapeContentParts:
		if len(resp.Candidates) == 0 {
			return ""
		}
		var texts []string
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
		}
		return strings.TrimSpace(strings.Join(texts, " "))
	default:
		return ""
	}
}

// ExtractAnswer returns the first non-empty text in shape preference order
// together with the shape it came from. ok is false when every shape is empty.
func ExtractAnswer(resp *providers.GenerateResponse) (answer string, shape ResponseShape, ok bool) {
	if resp == nil {
		return "", ShapeText, false
	}
	for _, s := range shapePreference {
		if text := s.extract(resp); text != "" {
			return text, s, true
		}
	}
	return "", ShapeText, false
}

// DecodeResponse parses a raw JSON generation response and extracts its answer.
// Unknown fields are ignored; an unparseable or empty body wraps ErrSynthesis.
func DecodeResponse(body []byte) (string, ResponseShape, error) {
	var resp providers.GenerateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", ShapeText, fmt.Errorf("%w: malformed response: %w", ErrSynthesis, err)
	}
	answer, shape, ok := ExtractAnswer(&resp)
	if !ok {
		return "", shape, fmt.Errorf("%w: empty response", ErrSynthesis)
	}
	return answer, shape, nil
}
