// Package export reads and writes the JSON documents exchanged between
// pipeline stages and the visualization front-end.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vanshika/geosocial/backend/internal/domain"
)

// WriteUsers serializes user documents as an indented JSON array.
func WriteUsers(path string, users []domain.UserRecord) error {
	if users == nil {
		users = []domain.UserRecord{}
	}
	return writeJSON(path, users)
}

// ReadUsers loads a JSON array of user documents.
func ReadUsers(path string) ([]domain.UserRecord, error) {
	var users []domain.UserRecord
	if err := readJSON(path, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// WriteSubgraph stores the sampled nodes. Links are implied by the rewritten
// connections and are rebuilt by ReadSubgraph.
func WriteSubgraph(path string, sub domain.Subgraph) error {
	return WriteUsers(path, sub.Nodes)
}

// ReadSubgraph loads sampled nodes and derives one link per connection whose
// target is also a sampled node.
func ReadSubgraph(path string) (domain.Subgraph, error) {
	nodes, err := ReadUsers(path)
	if err != nil {
		return domain.Subgraph{}, err
	}
	return domain.Subgraph{Nodes: nodes, Links: LinksOf(nodes)}, nil
}

// LinksOf returns the in-set links of nodes in node-then-connection order.
func LinksOf(nodes []domain.UserRecord) []domain.Link {
	ids := make(map[int64]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.UserID] = struct{}{}
	}
	links := []domain.Link{}
	for _, n := range nodes {
		for _, target := range n.Connections {
			if _, ok := ids[target]; ok {
				links = append(links, domain.Link{Source: n.UserID, Target: target})
			}
		}
	}
	return links
}

func writeJSON(path string, data any) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := encodeAndClose(file, data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// encodeAndClose writes indented JSON and reports a failed Close, which on a
// file can be the first sign of a lost write.
func encodeAndClose(wc io.WriteCloser, data any) (err error) {
	defer func() {
		err = errors.Join(err, wc.Close())
	}()

	encoder := json.NewEncoder(wc)
	encoder.SetIndent("", "    ")
	return encoder.Encode(data)
}

func readJSON(path string, target any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WriteVisualization stores the front-end graph payload.
func WriteVisualization(path string, viz Visualization) error {
	return writeJSON(path, viz)
}
