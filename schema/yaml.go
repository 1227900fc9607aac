package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseYAML compiles a YAML schema document, a mapping from field name to
// field declaration:
//
//	id:
//	  type: String
//	  primary: true
//	createdAt:
//	  type: Date
//	  dateFormat: Timestamp
//	tags:
//	  type: MappedList
//	  keyAttribute: name
//	  attributes:
//	    name: {type: String}
//	    weight: {type: Number}
func ParseYAML(data []byte) (*Schema, error) {
	var fields map[string]Field
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("schema: parse yaml: %w", err)
	}
	return New(fields)
}

// LoadFile reads and compiles a YAML schema file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return ParseYAML(data)
}
