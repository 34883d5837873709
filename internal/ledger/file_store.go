package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MalformedError lists the handles whose stored entries could not be read.
// Those handles are treated as having no record.
type MalformedError struct {
	Handles []string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed score entries reset for: %s", strings.Join(e.Handles, ", "))
}

// FileStore keeps the ledger in a single YAML document mapping each handle to
// its counters:
//
//	alice:
//	  wins: 3
//	  losses: 1
//	  draws: 0
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the scores file. A missing file is an empty ledger. A file that
// isn't a YAML mapping is an error with no records; individual entries that
// don't decode (or carry negative counts) are dropped and reported through a
// *MalformedError while the rest of the ledger is returned.
func (s *FileStore) Load() (map[string]Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("error reading %s: %w", s.Path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", s.Path, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) || root.ShortTag() == "!!null" {
		return map[string]Record{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("error parsing %s: expected a mapping of handles", s.Path)
	}

	// Keys are taken as plain strings. A << key is a handle, not a merge.
	records := make(map[string]Record, len(root.Content)/2)
	var malformed []string
	for i := 0; i+1 < len(root.Content); i += 2 {
		handle, node := root.Content[i].Value, root.Content[i+1]
		var r Record
		if err := node.Decode(&r); err != nil || r.Wins < 0 || r.Losses < 0 || r.Draws < 0 {
			malformed = append(malformed, handle)
			continue
		}
		records[handle] = r
	}

	if len(malformed) > 0 {
		sort.Strings(malformed)
		return records, &MalformedError{Handles: malformed}
	}
	return records, nil
}

// Save rewrites the whole scores file. The new contents are written to a
// temporary file in the same directory and renamed over the old one.
func (s *FileStore) Save(records map[string]Record) error {
	data, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("error encoding scores: %w", err)
	}

	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("error creating temporary scores file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing scores: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("error syncing scores: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing scores file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("error replacing %s: %w", s.Path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// encodeRecords renders records sorted by handle. Every handle is written as
// a double-quoted string so that YAML-significant handles (<<, ~, null, a:b)
// come back unchanged.
func encodeRecords(records map[string]Record) ([]byte, error) {
	handles := make([]string, 0, len(records))
	for handle := range records {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, handle := range handles {
		value := &yaml.Node{}
		if err := value.Encode(records[handle]); err != nil {
			return nil, err
		}
		key := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Style: yaml.DoubleQuotedStyle,
			Value: handle,
		}
		root.Content = append(root.Content, key, value)
	}
	return yaml.Marshal(root)
}
