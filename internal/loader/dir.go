package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LoadDir reads the six register files from dir. A missing file yields an
// empty row set so a partial seed directory still boots.
func LoadDir(dir string) (*Registers, error) {
	regs := &Registers{}

	load := func(name string, parse func(io.Reader) error) error {
		f, err := os.Open(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		defer f.Close()
		return parse(f)
	}

	steps := []struct {
		name  string
		parse func(io.Reader) error
	}{
		{"users.csv", func(r io.Reader) (err error) { regs.Users, err = ParseUsers(r); return }},
		{"owners.csv", func(r io.Reader) (err error) { regs.Owners, err = ParseOwners(r); return }},
		{"properties.csv", func(r io.Reader) (err error) { regs.Properties, err = ParseProperties(r); return }},
		{"demands.csv", func(r io.Reader) (err error) { regs.Demands, err = ParseDemands(r); return }},
		{"collections.csv", func(r io.Reader) (err error) { regs.Collections, err = ParseCollections(r); return }},
		{"history.csv", func(r io.Reader) (err error) { regs.History, err = ParseHistory(r); return }},
	}
	for _, s := range steps {
		if err := load(s.name, s.parse); err != nil {
			return nil, err
		}
	}
	return regs, nil
}
