package app

import (
	"os"
	"time"
)

// StateFile records the outcome of the most recent apply.
type StateFile struct {
	Version     int    `json:"version"`
	LastApplyAt string `json:"lastApplyAt,omitempty"`
	LastScope   string `json:"lastScope,omitempty"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
}

func loadState(paths Paths) (StateFile, error) {
	var s StateFile
	err := readJSONFile(paths.StatePath, &s)
	if err != nil {
		if os.IsNotExist(err) {
			return StateFile{Version: 1}, nil
		}
		return StateFile{}, err
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return s, nil
}

func saveState(paths Paths, state StateFile) error {
	state.Version = 1
	if state.LastApplyAt == "" {
		state.LastApplyAt = time.Now().UTC().Format(time.RFC3339)
	}
	return writeJSONAtomic(paths.StatePath, state)
}

func scopeLabel(opts ApplyOptions) string {
	switch {
	case opts.Profile != "":
		return "profile:" + opts.Profile
	case opts.Tool != "":
		return "tool:" + opts.Tool
	default:
		return "all"
	}
}
