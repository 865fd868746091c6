package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	flags, err := store.Load()
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(flags) != 0 {
		t.Errorf("expected empty flags, got %v", flags)
	}
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	flags, err := NewFileStore(path).Load()
	if err == nil {
		t.Error("expected a parse error for corrupt file")
	}
	if flags == nil || len(flags) != 0 {
		t.Errorf("expected usable empty flags despite parse error, got %v", flags)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)

	flags := Flags{}
	flags.SetBool("prematch_posted_100")
	flags.SetStrings("news_ids", []string{"a", "b"})

	if err := s.Save(flags); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !loaded.Bool("prematch_posted_100") {
		t.Error("boolean flag lost in round trip")
	}
	if got := loaded.Strings("news_ids"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("string list lost in round trip, got %v", got)
	}
}

func TestFileStoreSaveLeavesNoTempFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := NewFileStore(path).Save(Flags{"k": true}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file left behind after save")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file missing after save: %v", err)
	}
}

func TestFileStoreWritesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := NewFileStore(path).Save(Flags{"ft_posted_1": true}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if string(data[0]) != "{" || len(data) < len(`{"ft_posted_1":true}`) {
		t.Errorf("expected human-readable indented JSON, got %q", data)
	}
}

func TestFlagsStringsAfterJSONDecode(t *testing.T) {
	// json.Unmarshal yields []any, not []string.
	var flags Flags
	if err := json.Unmarshal([]byte(`{"news_ids":["x","y"],"n":3}`), &flags); err != nil {
		t.Fatal(err)
	}

	got := flags.Strings("news_ids")
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("Strings() on decoded list = %v, want [x y]", got)
	}
	if flags.Strings("n") != nil {
		t.Error("Strings() on a non-list should return nil")
	}
	if flags.Bool("n") {
		t.Error("Bool() on a number should be false")
	}
}

func TestFlagsDelete(t *testing.T) {
	flags := Flags{}
	flags.SetStrings("posted_goals_7", []string{"goal-1-10-true"})
	flags.Delete("posted_goals_7")

	if _, ok := flags["posted_goals_7"]; ok {
		t.Error("key still present after Delete")
	}
}
