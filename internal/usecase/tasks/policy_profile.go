package tasks

import (
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	domaintasks "taskproxy/internal/domain/tasks"
	"taskproxy/internal/errs"
)

// Profile bundles the status policy with the extraction key lists. Both are
// upstream vocabulary, so both are configuration.
type Profile struct {
	Policy        domaintasks.StatusPolicy
	ExtractKeys   []string
	ContainerKeys []string
}

func (p Profile) withDefaults() Profile {
	if len(p.ExtractKeys) == 0 {
		p.ExtractKeys = defaultExtractKeys
	}
	if len(p.ContainerKeys) == 0 {
		p.ContainerKeys = defaultContainerKeys
	}
	return p
}

func DefaultProfile() Profile {
	return Profile{Policy: domaintasks.DefaultStatusPolicy()}.withDefaults()
}

type profileFile struct {
	Status struct {
		Terminal []string `toml:"terminal"`
		Hidden   []string `toml:"hidden"`
	} `toml:"status"`
	Extraction struct {
		Keys       []string `toml:"keys"`
		Containers []string `toml:"containers"`
	} `toml:"extraction"`
}

// LoadProfile reads a policy TOML file. An empty path means defaults.
func LoadProfile(path string) (Profile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultProfile(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errs.Wrapf(err, "read policy file %q", path)
	}

	var file profileFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return Profile{}, errs.Wrapf(err, "parse policy file %q", path)
	}

	profile := Profile{
		Policy:        domaintasks.NewStatusPolicy(file.Status.Terminal, file.Status.Hidden),
		ExtractKeys:   file.Extraction.Keys,
		ContainerKeys: file.Extraction.Containers,
	}
	return profile.withDefaults(), nil
}
