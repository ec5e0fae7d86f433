package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Write renders r in format and writes it under dir, returning the file path.
// The file name is derived from the room (or "single") and the end time.
func Write(dir, format string, r *MatchReport) (string, error) {
	renderer, err := RendererFor(format)
	if err != nil {
		return "", err
	}
	data, err := renderer.Render(r)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	ext := ".md"
	if format == "json" {
		ext = ".json"
	}
	path := filepath.Join(dir, FileName(r)+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// FileName returns the extension-less report name for r.
func FileName(r *MatchReport) string {
	tag := "single"
	if !r.Match.SinglePlayer && r.Match.RoomCode != "" {
		tag = strings.ToLower(r.Match.RoomCode)
	}
	return fmt.Sprintf("duelword-%s-%s", tag, r.Match.EndTime.Format("20060102-150405"))
}
