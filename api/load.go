package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
)

// cborEncMode encodes snapshots canonically so identical documents
// produce identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("api: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// DecodeTOML parses a TOML description. Unknown keys are rejected.
func DecodeTOML(data []byte, name string) (*Document, error) {
	var doc Document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		var perr toml.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("parse error in %s:%d: %s", name, perr.Position.Line, perr.Message)
		}
		return nil, fmt.Errorf("parse error in %s: %w", name, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", name, strings.Join(keys, ", "))
	}
	doc.Source = name
	doc.Positions = declPositions(data)
	return &doc, nil
}

var (
	arrayTableRe = regexp.MustCompile(`^\s*\[\[\s*(enum|function|class)\s*\]\]`)
	prefixKeyRe  = regexp.MustCompile(`^\s*prefix\s*=`)
)

func positionKey(kind string, index int) string {
	if index < 0 {
		return kind
	}
	return kind + "[" + strconv.Itoa(index) + "]"
}

// declPositions records the line of every [[enum]], [[function]] and
// [[class]] header, indexed the way the decoder fills the slices.
func declPositions(data []byte) map[string]int {
	positions := map[string]int{}
	counts := map[string]int{}
	inTable := false
	for i, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if m := arrayTableRe.FindStringSubmatch(line); m != nil {
			positions[positionKey(m[1], counts[m[1]])] = i + 1
			counts[m[1]]++
			inTable = true
			continue
		}
		if strings.HasPrefix(trimmed, "[") {
			inTable = true
			continue
		}
		if !inTable && prefixKeyRe.MatchString(line) {
			positions[positionKey("prefix", -1)] = i + 1
		}
	}
	return positions
}

// MarshalSnapshot serializes a document to canonical CBOR.
func MarshalSnapshot(doc *Document) ([]byte, error) {
	return cborEncMode.Marshal(doc)
}

// UnmarshalSnapshot deserializes a document from CBOR bytes.
func UnmarshalSnapshot(data []byte, name string) (*Document, error) {
	var doc Document
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("api: unmarshal snapshot %s: %w", name, err)
	}
	doc.Source = name
	return &doc, nil
}

// ReadDocument reads a document from disk, choosing the decoder by file
// extension: ".cbor" for snapshots, anything else is TOML.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		return UnmarshalSnapshot(data, path)
	}
	return DecodeTOML(data, path)
}

// Load reads and resolves a description file.
func Load(path string) (*Description, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %s", path)
	return Resolve(doc)
}

// WriteSnapshot stores doc as a canonical CBOR snapshot at path.
func WriteSnapshot(path string, doc *Document) error {
	data, err := MarshalSnapshot(doc)
	if err != nil {
		return fmt.Errorf("api: marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
