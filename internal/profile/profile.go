// Package profile manages the user's persistent duelword profile.
// The profile is stored at ~/.config/duelword/profile.json and is created
// once via the interactive setup flow, then referenced on every command.
package profile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fakeyudi/duelword/internal/wordle"
)

// Profile holds user-level preferences set during first-run setup.
type Profile struct {
	Name              string `json:"name"`
	Language          string `json:"language"`            // "en" | "tr"
	DefaultWordLength int    `json:"default_word_length"` // 3..6, single-player
	DefaultFormat     string `json:"default_format"`      // "markdown" | "json"
	OutputDir         string `json:"output_dir"`          // match report directory
}

// profilePath returns the path to the profile file.
func profilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "duelword", "profile.json"), nil
}

// Exists reports whether a profile file is present on disk.
func Exists() bool {
	p, err := profilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load reads the profile from disk. Returns an error if the file is missing or malformed.
func Load() (*Profile, error) {
	p, err := profilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("profile not found, run 'duelword setup' to configure: %w", err)
	}
	var prof Profile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, fmt.Errorf("malformed profile at %s: %w", p, err)
	}
	return &prof, nil
}

// Save writes the profile to disk, creating the config directory if needed.
func Save(prof *Profile) error {
	p, err := profilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prof, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// WordLength returns the profile's preferred single-player word length.
func (p *Profile) WordLength() int {
	if p == nil || !wordle.ValidWordLength(p.DefaultWordLength) {
		return wordle.DefaultWordLength
	}
	return p.DefaultWordLength
}

// RunSetup runs the interactive setup wizard on in/out.
// If existing is non-nil, it is used as the default for each prompt (edit mode).
func RunSetup(in io.Reader, out io.Writer, existing *Profile) (*Profile, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				return defaultVal, nil
			}
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	prof := &Profile{
		Language:          string(wordle.DefaultLanguage),
		DefaultWordLength: wordle.DefaultWordLength,
		DefaultFormat:     "markdown",
		OutputDir:         ".",
	}
	if existing != nil {
		*prof = *existing
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   duelword, first-time setup    │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	prof.Name, err = ask("  Player name", prof.Name)
	if err != nil {
		return nil, err
	}

	lang, err := ask("  Word language (en/tr)", prof.Language)
	if err != nil {
		return nil, err
	}
	if l, perr := wordle.ParseLanguage(strings.ToLower(lang)); perr == nil {
		prof.Language = string(l)
	}

	length, err := ask("  Single-player word length (3-6)", strconv.Itoa(prof.WordLength()))
	if err != nil {
		return nil, err
	}
	if n, perr := strconv.Atoi(length); perr == nil && wordle.ValidWordLength(n) {
		prof.DefaultWordLength = n
	}

	format, err := ask("  Match report format (markdown/json)", prof.DefaultFormat)
	if err != nil {
		return nil, err
	}
	if format == "json" {
		prof.DefaultFormat = "json"
	} else {
		prof.DefaultFormat = "markdown"
	}

	prof.OutputDir, err = ask("  Match report directory", prof.OutputDir)
	if err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	return prof, nil
}
