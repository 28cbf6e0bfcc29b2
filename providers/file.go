package providers

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// File is the YAML layout of a providers file:
//
//	providers:
//	  - name: google
//	    client_id: ...
type File struct {
	Providers []Config `yaml:"providers"`
}

// LoadFile reads provider overrides from a YAML file. Each entry must be complete.
func LoadFile(fs afero.Fs, path string) ([]Config, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("[providers.LoadFile] read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("[providers.LoadFile] parse %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(f.Providers))
	for _, c := range f.Providers {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("[providers.LoadFile] duplicate provider %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("[providers.LoadFile] provider %q: %w", c.Name, err)
		}
	}
	return f.Providers, nil
}
