package config

// Project bundles the paths and configuration one command operates on.
type Project struct {
	Paths  Paths
	Config *Config
}

// LoadProject reads Doxidize.toml next to manifestPath. outputOverride, when
// set, wins over output.dir.
func LoadProject(manifestPath, outputOverride string) (*Project, error) {
	paths := NewPaths(manifestPath, "")
	cfg, err := Load(paths.ConfigFile())
	if err != nil {
		return nil, err
	}
	out := cfg.Output.Dir
	if outputOverride != "" {
		out = outputOverride
	}
	return &Project{Paths: NewPaths(manifestPath, out), Config: cfg}, nil
}

// Menu reads the menu document. It is re-read on every call so live builds
// pick up edits.
func (p *Project) Menu() ([]MenuEntry, error) {
	return LoadMenu(p.Paths.MenuFile())
}
