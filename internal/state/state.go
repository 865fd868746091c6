// Package state persists the small dedupe map that stops the bot from
// posting the same update twice across scheduled runs.
package state

import (
	"encoding/json"
	"fmt"
	"os"
)

// Flags is the flat dedupe map: boolean markers like
// "prematch_posted_{eventID}" and string lists like "news_ids".
type Flags map[string]any

// Bool reports whether key is set to true.
func (f Flags) Bool(key string) bool {
	v, ok := f[key].(bool)
	return ok && v
}

// SetBool marks key as done. Flags are only ever set, never cleared,
// except via Delete.
func (f Flags) SetBool(key string) {
	f[key] = true
}

// Strings returns the string list stored at key. JSON decoding yields
// []any, so both representations are accepted.
func (f Flags) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (f Flags) SetStrings(key string, values []string) {
	f[key] = values
}

func (f Flags) Delete(key string) {
	delete(f, key)
}

// Store loads and saves the dedupe map. Implementations must tolerate
// concurrent scheduled runs only to the extent of not corrupting data;
// last writer wins.
type Store interface {
	Load() (Flags, error)
	Save(Flags) error
}

// FileStore keeps the state as an indented JSON object on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state file. A missing, empty or unparseable file
// yields an empty map so a broken state file can never take the bot
// down; the parse error is returned for logging.
func (s *FileStore) Load() (Flags, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Flags{}, nil
		}
		return Flags{}, fmt.Errorf("failed to read state file: %w", err)
	}
	if len(data) == 0 {
		return Flags{}, nil
	}

	var flags Flags
	if err := json.Unmarshal(data, &flags); err != nil {
		return Flags{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	if flags == nil {
		flags = Flags{}
	}
	return flags, nil
}

// Save writes the state to a temporary file and renames it into place,
// so a crash mid-write leaves the previous state intact.
func (s *FileStore) Save(flags Flags) error {
	data, err := json.MarshalIndent(flags, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
