package install

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Record is the receipt of one successful artifact install.
type Record struct {
	Tool        string    `json:"tool"`
	Version     string    `json:"version"`
	Build       string    `json:"build,omitempty"`
	Source      string    `json:"source"`
	Prefix      string    `json:"prefix"`
	InstallDir  string    `json:"install_dir"`
	Link        string    `json:"link"`
	Binaries    []string  `json:"binaries,omitempty"`
	Artifact    string    `json:"artifact"`
	SHA256      string    `json:"sha256,omitempty"`
	Verified    bool      `json:"verified"`
	InstalledAt time.Time `json:"installed_at"`
}

// State is the receipts file, keyed by tool then prefix so installs into
// different prefixes do not overwrite each other.
type State struct {
	Installed map[string]map[string]Record `json:"installed"`
}

// StateManager reads and writes $TOOLSTRAP_HOME/state.json. Writers must
// hold the run lock.
type StateManager struct {
	path string
}

// NewStateManager returns a manager for the state file in home.
func NewStateManager(home string) *StateManager {
	return &StateManager{path: filepath.Join(home, "state.json")}
}

// Path returns the state file location.
func (sm *StateManager) Path() string { return sm.path }

// Load returns the stored state, or an empty one when the file is missing.
func (sm *StateManager) Load() (*State, error) {
	state := &State{Installed: map[string]map[string]Record{}}
	data, err := os.ReadFile(sm.path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", sm.path, err)
	}
	if state.Installed == nil {
		state.Installed = map[string]map[string]Record{}
	}
	return state, nil
}

// Record stores rec, replacing the previous receipt for the same tool
// and prefix.
func (sm *StateManager) Record(rec Record) error {
	state, err := sm.Load()
	if err != nil {
		return err
	}
	if state.Installed[rec.Tool] == nil {
		state.Installed[rec.Tool] = map[string]Record{}
	}
	state.Installed[rec.Tool][rec.Prefix] = rec
	return sm.save(state)
}

func (sm *StateManager) save(state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(sm.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	tmp := sm.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := os.Rename(tmp, sm.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return nil
}

// List returns every record sorted by tool then prefix.
func (s *State) List() []Record {
	var out []Record
	for _, byPrefix := range s.Installed {
		for _, rec := range byPrefix {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tool != out[j].Tool {
			return out[i].Tool < out[j].Tool
		}
		return out[i].Prefix < out[j].Prefix
	})
	return out
}
