package schema

import "strings"

// NamespacePlaceholder prefixes custom field names in exported files.
const NamespacePlaceholder = "%vlocity_namespace%__"

// Namespaced adds the placeholder to custom names. Dotted relationship
// paths are rewritten per segment; names already carrying the placeholder
// are returned unchanged.
func Namespaced(name string) string {
	if strings.Contains(name, NamespacePlaceholder) {
		return name
	}
	if strings.Index(name, ".") > 0 {
		parts := strings.Split(name, ".")
		for i, part := range parts {
			if isCustomName(part) {
				parts[i] = NamespacePlaceholder + part
			}
		}
		return strings.Join(parts, ".")
	}
	if strings.Index(name, "__c") > 0 {
		return NamespacePlaceholder + name
	}
	return name
}

func isCustomName(part string) bool {
	return strings.Index(part, "__c") > 0 || strings.Index(part, "__r") > 0
}

func rewriteNamespace(node any) any {
	switch v := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[Namespaced(key)] = rewriteNamespace(value)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, value := range v {
			out[i] = rewriteNamespace(value)
		}
		return out
	case string:
		return Namespaced(v)
	default:
		return node
	}
}
