package config

import "testing"

func TestParseStorageMode(t *testing.T) {
	cases := map[string]StorageMode{
		"sqlite":  ModeSQLite,
		"dual":    ModeDual,
		"couch":   ModeCouch,
		" SQLite": ModeSQLite,
		"DUAL ":   ModeDual,
	}
	for raw, want := range cases {
		got, err := parseStorageMode(raw)
		if err != nil {
			t.Fatalf("parseStorageMode(%q): %v", raw, err)
		}
		if got != want {
			t.Errorf("parseStorageMode(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestParseStorageModeRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "firestore", "postgres", "both"} {
		if _, err := parseStorageMode(raw); err == nil {
			t.Errorf("parseStorageMode(%q) should fail", raw)
		}
	}
}

func TestNormalizeNamespace(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"  /family-a/ ": "family-a",
		"family-a":      "family-a",
		"///":           "",
	}
	for raw, want := range cases {
		if got := normalizeNamespace(raw); got != want {
			t.Errorf("normalizeNamespace(%q) = %q, want %q", raw, got, want)
		}
	}
}
