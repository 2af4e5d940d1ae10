package es

import "sort"

// MappingNode is one node of an index field-mapping tree. A leaf carries a
// type and no properties; an object node carries properties and no type.
// Fields holds multi-field sub-analyzers (e.g. the keyword variant of a
// text field).
type MappingNode struct {
	Type       string                 `json:"type,omitempty"`
	Properties map[string]MappingNode `json:"properties,omitempty"`
	Fields     map[string]MappingNode `json:"fields,omitempty"`
}

// indexMapping is the wire envelope of GET <index>/_mapping.
type indexMapping struct {
	Mappings struct {
		Properties map[string]MappingNode `json:"properties"`
	} `json:"mappings"`
}

// FlattenedColumn is one leaf of a flattened mapping tree: a dotted path and
// the native field type.
type FlattenedColumn struct {
	Path string
	Type string
}

// flattenMapping walks a mapping tree depth-first and returns one entry per
// leaf field and one per declared multi-field. Object nodes contribute their
// path prefix but no entry of their own. suppressed names sub-fields the
// active dialect cannot query. The tree is finite and acyclic, so plain
// recursion terminates.
func flattenMapping(properties map[string]MappingNode, parent string, suppressed map[string]struct{}) []FlattenedColumn {
	columns := []FlattenedColumn{}
	for _, name := range sortedKeys(properties) {
		node := properties[name]
		path := name
		if parent != "" {
			path = parent + "." + name
		}
		if len(node.Properties) > 0 {
			columns = append(columns, flattenMapping(node.Properties, path, suppressed)...)
		} else if node.Type != "" {
			columns = append(columns, FlattenedColumn{Path: path, Type: node.Type})
		}
		// Multi-fields are additive, never a substitute for the primary
		// emission above.
		for _, sub := range sortedKeys(node.Fields) {
			if _, skip := suppressed[sub]; skip {
				continue
			}
			columns = append(columns, FlattenedColumn{
				Path: path + "." + sub,
				Type: node.Fields[sub].Type,
			})
		}
	}
	return columns
}

func sortedKeys(nodes map[string]MappingNode) []string {
	keys := make([]string, 0, len(nodes))
	for key := range nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
