package synonym

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/odyomed/resolve/errors"
)

// groupsFile is the on-disk shape of a synonyms configuration file:
//
//	groups:
//	  - canonical: hearing_aid
//	    alternates:
//	      - işitme cihazı
//	      - hearing aid
type groupsFile struct {
	Groups []Group `yaml:"groups"`
}

// LoadFile reads synonym groups from a YAML file.
func LoadFile(path string) ([]Group, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read synonyms file %s", path)
	}

	var f groupsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse synonyms file %s", path)
	}

	return f.Groups, nil
}

// DefaultGroups returns the built-in synonym groups for the clinic
// inventory domain. Used when no synonyms file is configured.
func DefaultGroups() []Group {
	return []Group{
		{
			Canonical: "hearing_aid",
			Alternates: []string{
				"işitme cihazı",
				"isitme cihazi",
				"hearing aid",
				"işitme aleti",
			},
		},
		{
			Canonical: "battery",
			Alternates: []string{
				"pil",
				"işitme cihazı pili",
				"hearing aid battery",
			},
		},
		{
			Canonical: "earmold",
			Alternates: []string{
				"kulak kalıbı",
				"ear mold",
			},
		},
		{
			Canonical: "accessory",
			Alternates: []string{
				"aksesuar",
				"accessories",
			},
		},
		{
			Canonical: "maintenance",
			Alternates: []string{
				"bakım ürünü",
				"temizlik ürünü",
				"cleaning product",
			},
		},
	}
}
