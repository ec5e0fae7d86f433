package profile

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunSetupUsesAnswers(t *testing.T) {
	in := strings.NewReader("Ada\nen\n4\njson\nreports\n")
	var out bytes.Buffer

	prof, err := RunSetup(in, &out, nil)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	want := Profile{Name: "Ada", Language: "en", DefaultWordLength: 4, DefaultFormat: "json", OutputDir: "reports"}
	if *prof != want {
		t.Errorf("profile = %+v, want %+v", *prof, want)
	}
	if !strings.Contains(out.String(), "Player name") {
		t.Errorf("prompt missing from output: %q", out.String())
	}
}

func TestRunSetupKeepsDefaultsOnBadInput(t *testing.T) {
	existing := &Profile{Name: "Bo", Language: "tr", DefaultWordLength: 6, DefaultFormat: "markdown", OutputDir: "."}
	in := strings.NewReader("\nklingon\n9\n\n")

	prof, err := RunSetup(in, &bytes.Buffer{}, existing)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if *prof != *existing {
		t.Errorf("profile = %+v, want unchanged %+v", *prof, *existing)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if Exists() {
		t.Fatal("profile exists in a fresh home")
	}
	prof := &Profile{Name: "Ada", Language: "en", DefaultWordLength: 5, DefaultFormat: "markdown", OutputDir: "."}
	if err := Save(prof); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("profile missing after Save")
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *prof {
		t.Errorf("Load = %+v, want %+v", *got, *prof)
	}
}

func TestWordLengthFallback(t *testing.T) {
	var nilProfile *Profile
	if nilProfile.WordLength() != 5 {
		t.Error("nil profile should use the default length")
	}
	if (&Profile{DefaultWordLength: 8}).WordLength() != 5 {
		t.Error("invalid length should fall back to the default")
	}
}
