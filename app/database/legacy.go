package database

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// KeywordState is the per-keyword pagination state carried over from the
// original flat-file harvester.
type KeywordState struct {
	LastPageToken string `json:"last_page_token"`
	FetchedCount  int    `json:"fetched_count"`
	Completed     bool   `json:"completed"`
}

// LegacyStore is the best-effort compatibility layer: a JSON state file
// with per-keyword pagination progress plus a sorted channel-URL list, the
// exact format the original harvester script reads and writes. Writes are
// mirrored here behind the primary layer; only the primary's success
// matters. Reads happen once, as a migration source on an empty primary.
type LegacyStore struct {
	statePath    string
	channelsPath string
}

func NewLegacyStore(statePath, channelsPath string) *LegacyStore {
	return &LegacyStore{statePath: statePath, channelsPath: channelsPath}
}

// LoadState reads the pagination state, returning an empty map on first run.
func (l *LegacyStore) LoadState() (map[string]KeywordState, error) {
	data, err := os.ReadFile(l.statePath)
	if os.IsNotExist(err) {
		return map[string]KeywordState{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy state file: %w", err)
	}

	state := map[string]KeywordState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse legacy state file: %w", err)
	}
	return state, nil
}

// SaveState persists the pagination state atomically via a temp file.
func (l *LegacyStore) SaveState(state map[string]KeywordState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode legacy state: %w", err)
	}
	return atomicWrite(l.statePath, data)
}

// LoadChannels reads the channel-URL list, one URL per line.
func (l *LegacyStore) LoadChannels() ([]string, error) {
	f, err := os.Open(l.channelsPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open legacy channels file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url != "" {
			urls = append(urls, url)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read legacy channels file: %w", err)
	}
	return urls, nil
}

// SaveChannels writes the deduplicated URL list sorted, matching the
// original output format.
func (l *LegacyStore) SaveChannels(urls []string) error {
	unique := make(map[string]bool, len(urls))
	for _, url := range urls {
		if url != "" {
			unique[url] = true
		}
	}

	sorted := make([]string, 0, len(unique))
	for url := range unique {
		sorted = append(sorted, url)
	}
	sort.Strings(sorted)

	var b strings.Builder
	for _, url := range sorted {
		b.WriteString(url)
		b.WriteString("\n")
	}
	return atomicWrite(l.channelsPath, []byte(b.String()))
}

func atomicWrite(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
