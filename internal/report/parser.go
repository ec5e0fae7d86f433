package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Parser deserializes a report file back into structured data.
type Parser interface {
	Parse(data []byte) (*MatchReport, error)
}

// JSONParser parses a JSON-encoded MatchReport.
type JSONParser struct{}

func (JSONParser) Parse(data []byte) (*MatchReport, error) {
	var r MatchReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse JSON report: %w", err)
	}
	return &r, nil
}

// MarkdownParser extracts the embedded payload from a Markdown report.
type MarkdownParser struct{}

func (MarkdownParser) Parse(data []byte) (*MatchReport, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid duelword report: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid duelword report: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid duelword report: malformed data payload")
	}

	jsonBytes, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("not a valid duelword report: corrupted base64 payload: %w", err)
	}

	var r MatchReport
	if err := json.Unmarshal(jsonBytes, &r); err != nil {
		return nil, fmt.Errorf("not a valid duelword report: failed to parse embedded JSON: %w", err)
	}
	return &r, nil
}

// Parse picks the parser from the content: Markdown when the version
// sentinel is present, JSON otherwise.
func Parse(data []byte) (*MatchReport, error) {
	if strings.Contains(string(data), versionSentinel) {
		return MarkdownParser{}.Parse(data)
	}
	return JSONParser{}.Parse(data)
}
