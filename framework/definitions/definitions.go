// Package definitions loads container entries from YAML files.
//
//	entries:
//	  app.name: demo
//	  http.port: 8000
//	  transport: SMTPTransport   # a string naming a defined type is built on Get
//	aliases:
//	  transport: [Transport]
//	tags:
//	  settings: [app.name, http.port]
//	shared: [transport]
//
// Entries keep their file order.
package definitions

import (
	"fmt"
	"iter"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-resolver/framework/container"
)

// File is the root structure of a definitions file.
type File struct {
	Entries yaml.Node           `yaml:"entries"`
	Aliases map[string][]string `yaml:"aliases"` // target → aliases
	Tags    map[string][]string `yaml:"tags"`    // tag → ids
	Shared  []string            `yaml:"shared"`
}

// Entry is one id and its raw definition.
type Entry struct {
	ID    string
	Value any
}

// Definitions is a parsed definitions file.
type Definitions struct {
	Entries []Entry
	Aliases map[string][]string
	Tags    map[string][]string
	Shared  []string
}

// Load reads and parses the definitions file at path.
func Load(path string) (*Definitions, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a definitions document.
func Parse(content []byte) (*Definitions, error) {
	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, err
	}

	d := &Definitions{
		Aliases: file.Aliases,
		Tags:    file.Tags,
		Shared:  file.Shared,
	}

	switch file.Entries.Kind {
	case 0:
		return d, nil
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("entries: line %d: expected a mapping", file.Entries.Line)
	}

	nodes := file.Entries.Content
	for i := 0; i+1 < len(nodes); i += 2 {
		key, value := nodes[i], nodes[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, fmt.Errorf("entries: line %d: expected a non-empty id", key.Line)
		}
		var v any
		if err := value.Decode(&v); err != nil {
			return nil, fmt.Errorf("entries: %s: %w", key.Value, err)
		}
		d.Entries = append(d.Entries, Entry{ID: key.Value, Value: v})
	}
	return d, nil
}

// All yields the entries in file order.
func (d *Definitions) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, e := range d.Entries {
			if !yield(e.ID, e.Value) {
				return
			}
		}
	}
}

// Apply sets the entries, aliases and tags on c. Shared ids are left to the
// caller since sharing needs a TTL.
func (d *Definitions) Apply(c *container.Container) {
	c.SetMany(d.All())
	for _, target := range slices.Sorted(maps.Keys(d.Aliases)) {
		c.Alias(target, d.Aliases[target]...)
	}
	for _, tag := range slices.Sorted(maps.Keys(d.Tags)) {
		c.Tag(tag, d.Tags[tag]...)
	}
}
