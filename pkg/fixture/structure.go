// Package fixture builds virtual trees from nested YAML structures and
// captures existing trees back into that form.
//
// A structure is a YAML mapping. Mapping values are directories, scalars are
// file contents and null values are empty files:
//
//	etc:
//	  hosts: "127.0.0.1 localhost\n"
//	  nginx:
//	    nginx.conf: |
//	      worker_processes 1;
//	var:
//	  log: {}
//	README: null
//
// Key order is preserved, so the structure also fixes insertion order.
package fixture

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Entry is one file or directory of a Structure.
type Entry struct {
	Name string

	// Dir marks a directory; Children is only meaningful when set
	Dir      bool
	Children []*Entry

	// Content is the file content; ignored for directories
	Content []byte
}

// Structure is an ordered list of top-level entries.
type Structure struct {
	Entries []*Entry
}

// Parse reads a YAML structure from r. An empty document yields an empty
// structure.
func Parse(r io.Reader) (*Structure, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Structure{}, nil
		}
		return nil, fmt.Errorf("failed to decode structure: %w", err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return &Structure{}, nil
		}
		root = root.Content[0]
	}

	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return &Structure{}, nil
	}

	entries, err := parseMapping(root, "")
	if err != nil {
		return nil, err
	}
	return &Structure{Entries: entries}, nil
}

func parseMapping(n *yaml.Node, path string) ([]*Entry, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s: expected a mapping", n.Line, displayPath(path))
	}

	entries := make([]*Entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		entry, err := parseEntry(key.Value, value, path+"/"+key.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(name string, value *yaml.Node, path string) (*Entry, error) {
	switch value.Kind {
	case yaml.MappingNode:
		children, err := parseMapping(value, path)
		if err != nil {
			return nil, err
		}
		return &Entry{Name: name, Dir: true, Children: children}, nil

	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			return &Entry{Name: name}, nil
		}
		var content string
		if err := value.Decode(&content); err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", value.Line, path, err)
		}
		return &Entry{Name: name, Content: []byte(content)}, nil

	case yaml.AliasNode:
		return parseEntry(name, value.Alias, path)
	}

	return nil, fmt.Errorf("line %d: %s: expected a mapping or a scalar", value.Line, path)
}

func displayPath(path string) string {
	if path == "" {
		return "structure"
	}
	return path
}

// Encode writes s as YAML to w.
func (s *Structure) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(encodeMapping(s.Entries)); err != nil {
		return fmt.Errorf("failed to encode structure: %w", err)
	}
	return enc.Close()
}

func encodeMapping(entries []*Entry) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if len(entries) == 0 {
		n.Style = yaml.FlowStyle
	}

	for _, e := range entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name}
		var value *yaml.Node
		if e.Dir {
			value = encodeMapping(e.Children)
		} else {
			value = encodeContent(e.Content)
		}
		n.Content = append(n.Content, key, value)
	}
	return n
}

func encodeContent(content []byte) *yaml.Node {
	if !utf8.Valid(content) {
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!binary",
			Value: base64.StdEncoding.EncodeToString(content),
		}
	}

	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(content)}
	if len(content) == 0 {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}
