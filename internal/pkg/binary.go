package pkg

import (
	"encoding/json"
)

// BinEntry is one installed binary: the name it's exposed as under
// node_modules/.bin, and the script path relative to the package root.
type BinEntry struct {
	Name         string
	RelativePath string
}

// RawBin mirrors the raw npm "bin" field, which is either a single string
// (the package's own binary) or an object mapping names to script paths.
// Grounded on jam-npm-metadata's NpmBinMetadata untagged enum.
type RawBin struct {
	isSet  bool
	str    string
	object map[string]string
}

func (b *RawBin) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.isSet = true
		b.str = s
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	b.isSet = true
	b.object = obj
	return nil
}

func (b RawBin) MarshalJSON() ([]byte, error) {
	if b.object != nil {
		return json.Marshal(b.object)
	}
	return json.Marshal(b.str)
}

// ExtractBinaries turns a raw npm "bin" field into the package's BinEntry
// list. A lone string becomes {packageName: value}; an object passes
// through as-is. Grounded on jam-common::extract_binaries.
func ExtractBinaries(packageName string, bin *RawBin) []BinEntry {
	if bin == nil || !bin.isSet {
		return nil
	}

	if bin.object != nil {
		entries := make([]BinEntry, 0, len(bin.object))
		for name, path := range bin.object {
			entries = append(entries, BinEntry{Name: name, RelativePath: path})
		}
		return entries
	}

	return []BinEntry{{Name: packageName, RelativePath: bin.str}}
}
