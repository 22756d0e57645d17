// Package tag provides the tag identity and album mapping entities.
package tag

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ID is the opaque identifier read from a physical tag. No structure is
// assumed beyond equality; the zero value means "no tag present".
type ID string

// None is the absent tag.
const None ID = ""

// Mapping associates a tag with an album and its playback preference.
// Mapping files support two value forms: a bare album-name string
// (legacy) and an object with album and shuffle fields.
type Mapping struct {
	Album   string `json:"album" yaml:"album"`
	Shuffle bool   `json:"shuffle" yaml:"shuffle"`
}

// String renders the mapping the way the player announces it.
func (m Mapping) String() string {
	if m.Shuffle {
		return m.Album + " (shuffled)"
	}
	return m.Album
}

// UnmarshalJSON accepts either a bare album-name string or the
// {album, shuffle} object form.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*m = Mapping{Album: name}
		return nil
	}

	type plain Mapping
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = Mapping(p)
	return nil
}

// UnmarshalYAML accepts the same two value forms as UnmarshalJSON.
func (m *Mapping) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*m = Mapping{Album: name}
		return nil
	}

	type plain Mapping
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*m = Mapping(p)
	return nil
}
