package validation

import (
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

// ruleDocument is the YAML shape of one field's rule set.
type ruleDocument struct {
	Required  bool     `yaml:"required"`
	MinLength int      `yaml:"min_length"`
	MaxLength int      `yaml:"max_length"`
	Pattern   string   `yaml:"pattern"`
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	Email     bool     `yaml:"email"`
	Custom    string   `yaml:"custom"`
}

type schemaDocument struct {
	Fields map[string]ruleDocument `yaml:"fields"`
}

// LoadSchema parses a YAML schema. Custom predicates are referenced by name and
// resolved against customs; an unknown name is an error.
//
//	fields:
//	  age:
//	    min: 18
//	    max: 65
func LoadSchema(data []byte, customs map[string]CustomFunc) (Schema, error) {
	var doc schemaDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("parse schema: no fields declared")
	}

	names := make([]string, 0, len(doc.Fields))
	for name := range doc.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := make(Schema, len(doc.Fields))
	for _, name := range names {
		rd := doc.Fields[name]
		if rd.MinLength < 0 || rd.MaxLength < 0 {
			return nil, fmt.Errorf("field %s: negative length bound", name)
		}
		if rd.MaxLength > 0 && rd.MinLength > rd.MaxLength {
			return nil, fmt.Errorf("field %s: min_length exceeds max_length", name)
		}
		if rd.Min != nil && rd.Max != nil && *rd.Min > *rd.Max {
			return nil, fmt.Errorf("field %s: min exceeds max", name)
		}

		rule := Rule{
			Required:  rd.Required,
			MinLength: rd.MinLength,
			MaxLength: rd.MaxLength,
			Min:       rd.Min,
			Max:       rd.Max,
			Email:     rd.Email,
		}
		if rd.Pattern != "" {
			re, err := regexp.Compile(rd.Pattern)
			if err != nil {
				return nil, fmt.Errorf("field %s: compile pattern: %w", name, err)
			}
			rule.Pattern = re
		}
		if rd.Custom != "" {
			fn, ok := customs[rd.Custom]
			if !ok || fn == nil {
				return nil, fmt.Errorf("field %s: unknown custom validator %q", name, rd.Custom)
			}
			rule.Custom = fn
		}
		schema[name] = rule
	}
	return schema, nil
}

// MustLoadSchema is LoadSchema for embedded documents known to be valid.
func MustLoadSchema(data []byte, customs map[string]CustomFunc) Schema {
	schema, err := LoadSchema(data, customs)
	if err != nil {
		panic(err)
	}
	return schema
}
