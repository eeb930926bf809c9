package api

// Document is the serialized form of a description as written by an
// extractor. It is decoded from TOML or from a CBOR snapshot and turned
// into a Description by Resolve.
type Document struct {
	Prefix    string         `toml:"prefix" cbor:"prefix"`
	Enums     []EnumDecl     `toml:"enum" cbor:"enums"`
	Functions []FunctionDecl `toml:"function" cbor:"functions"`
	Classes   []ClassDecl    `toml:"class" cbor:"classes"`

	// Source is the file the document was read from (set at load time).
	Source string `toml:"-" cbor:"-"`
	// Positions maps "function[3]"-style keys (and "prefix") to the
	// 1-based line of the declaration. Only TOML sources carry positions.
	Positions map[string]int `toml:"-" cbor:"-"`
}

// EnumDecl declares a foreign enumeration.
type EnumDecl struct {
	Name   string          `toml:"name" cbor:"name"`
	Values []EnumValueDecl `toml:"value" cbor:"values"`
}

// EnumValueDecl declares one enumerator.
type EnumValueDecl struct {
	Name  string `toml:"name" cbor:"name"`
	Value int64  `toml:"value" cbor:"value"`
}

// FunctionDecl declares a foreign function.
type FunctionDecl struct {
	Name    string      `toml:"name" cbor:"name"`
	Returns string      `toml:"returns" cbor:"returns"`
	Gives   bool        `toml:"gives" cbor:"gives,omitempty"`
	Params  []ParamDecl `toml:"param" cbor:"params"`
}

// ParamDecl declares a parameter. Ownership is "keep", "take" or
// "callback"; empty means keep.
type ParamDecl struct {
	Name      string `toml:"name" cbor:"name"`
	Type      string `toml:"type" cbor:"type"`
	Ownership string `toml:"ownership" cbor:"ownership,omitempty"`
}

// ClassDecl declares an opaque foreign type. Functions are referenced by
// name and must be declared in the function list.
type ClassDecl struct {
	Name         string              `toml:"name" cbor:"name"`
	Constructors []string            `toml:"constructors" cbor:"constructors,omitempty"`
	Methods      map[string][]string `toml:"methods" cbor:"methods,omitempty"`
	TypeTag      string              `toml:"type_tag" cbor:"type_tag,omitempty"`
	Parent       string              `toml:"parent" cbor:"parent,omitempty"`
	TagValue     string              `toml:"tag_value" cbor:"tag_value,omitempty"`
	Supertypes   []string            `toml:"supertypes" cbor:"supertypes,omitempty"`
	Equality     string              `toml:"equality" cbor:"equality,omitempty"`
	Stringify    string              `toml:"stringify" cbor:"stringify,omitempty"`
	Copy         string              `toml:"copy" cbor:"copy,omitempty"`
	Free         string              `toml:"free" cbor:"free,omitempty"`
	GetContext   string              `toml:"get_ctx" cbor:"get_ctx,omitempty"`
}
