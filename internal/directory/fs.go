package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileListing es el formato del YAML:
//
//	mitarbeiter:
//	  - email: a@tenant.example
//	    full_name: A Name
//	    email_adresse: a@smtp.ionos.de
//	    email_password: secret
//	    sparte: X
type fileListing struct {
	Entries []Entry `yaml:"mitarbeiter"`
}

// File lee el listado desde disco en cada lookup, así los cambios hechos por la
// administración se ven sin reiniciar.
type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) load() ([]Entry, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("directory: read %s: %w", f.path, err)
	}
	var l fileListing
	if err := yaml.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("directory: parse %s: %w", f.path, err)
	}
	return l.Entries, nil
}

func (f *File) Lookup(ctx context.Context, key Key) (*Entry, error) {
	entries, err := f.load()
	if err != nil {
		return nil, err
	}
	return NewMemory(entries...).Lookup(ctx, key)
}

// Ping verifica que el archivo exista y parsee.
func (f *File) Ping(context.Context) error {
	_, err := f.load()
	return err
}
