package schema

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// File is the on-disk JSON form of one filetype's knowledge base.
type File struct {
	Filetype string   `json:"filetype"`
	Symbols  []Entry  `json:"symbols"`
	Required []string `json:"required,omitempty"`
	Lists    ListRule `json:"lists"`
}

// Entry is a symbol inside a File; the filetype comes from the File.
type Entry struct {
	Name          string `json:"name"`
	Documentation string `json:"documentation"`
}

// DecodeFile reads one knowledge-base file.
func DecodeFile(r io.Reader) (File, error) {
	var f File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("schema: decode: %w", err)
	}
	if f.Filetype == "" {
		return File{}, fmt.Errorf("schema: decode: missing filetype")
	}
	return f, nil
}

// FromFiles merges knowledge-base files into one Document. Symbol order
// follows file order, then entry order within each file.
func FromFiles(files ...File) (*Document, error) {
	var symbols []Symbol
	required := map[string][]string{}
	lists := map[string]ListRule{}
	for _, f := range files {
		for _, e := range f.Symbols {
			symbols = append(symbols, Symbol{Name: e.Name, Documentation: e.Documentation, Filetype: f.Filetype})
		}
		if len(f.Required) > 0 {
			required[f.Filetype] = append(required[f.Filetype], f.Required...)
		}
		if len(f.Lists.Variables) > 0 {
			lists[f.Filetype] = f.Lists
		}
	}
	s, err := NewSchema(symbols...)
	if err != nil {
		return nil, err
	}
	return NewDocument(s, required, lists), nil
}

// LoadFS loads every *.json file under dir in fsys, in lexical order.
func LoadFS(fsys fs.FS, dir string) (*Document, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	files := make([]File, 0, len(names))
	for _, name := range names {
		p := path.Join(dir, name)
		fh, err := fsys.Open(p)
		if err != nil {
			return nil, fmt.Errorf("schema: open %s: %w", p, err)
		}
		f, err := DecodeFile(fh)
		fh.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		files = append(files, f)
	}
	return FromFiles(files...)
}
