package bindgen

import "strings"

// keywordRenames lists method names that collide with C++ keywords and
// the name they are generated under.
var keywordRenames = map[string]string{
	"union":    "unite",
	"delete":   "del",
	"and":      "and_",
	"or":       "or_",
	"not":      "not_",
	"xor":      "xor_",
	"new":      "new_",
	"operator": "operator_",
	"template": "template_",
	"this":     "this_",
	"class":    "class_",
}

// MethodName returns the generated spelling of a logical method name.
// Entries in extra take precedence over the keyword table.
func MethodName(name string, extra map[string]string) string {
	if r, ok := extra[name]; ok {
		return r
	}
	if r, ok := keywordRenames[name]; ok {
		return r
	}
	return name
}

// StripPrefix removes the foreign namespace prefix from a foreign name,
// e.g. "isl_set" -> "set". Names without the prefix are kept.
func StripPrefix(name, prefix string) string {
	if prefix != "" && strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
		return name[len(prefix):]
	}
	return name
}

// Qualify joins a namespace and a name: ("isl", "set") -> "isl::set".
func Qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "::" + name
}
