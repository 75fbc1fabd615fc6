package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lostpaws/pawserver/internal/model"
)

// Seed is a startup snapshot: collection name to {id: record}.
type Seed map[string]map[string]model.Record

// ParseSeed decodes a seed snapshot from JSON.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return seed, nil
}

// LoadDir reads every *.json file in dir as one collection named after the
// file. A missing directory yields an empty seed; unreadable or malformed
// files are skipped so one bad file cannot keep the server from starting.
func LoadDir(dir string) (Seed, error) {
	seed := Seed{}

	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return seed, nil
		}
		return nil, err
	}

	for _, file := range files {
		name := file.Name()
		if file.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var entries map[string]model.Record
		if err := json.Unmarshal(content, &entries); err != nil {
			continue
		}
		seed[strings.TrimSuffix(name, ".json")] = entries
	}
	return seed, nil
}
