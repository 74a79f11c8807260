package types

// TransformManifest is the YAML document describing one transform
// invocation. Relative paths are resolved against the manifest's directory.
type TransformManifest struct {
	// Incremental defaults to true; false forces a full copy of every unit.
	Incremental   *bool          `yaml:"incremental,omitempty"`
	BootClasspath []string       `yaml:"boot_classpath,omitempty"`
	Units         []ManifestUnit `yaml:"units"`
	Referenced    []ManifestUnit `yaml:"referenced,omitempty"`
}

type ManifestUnit struct {
	Input   string          `yaml:"input"`
	Output  string          `yaml:"output,omitempty"`
	Format  string          `yaml:"format,omitempty"`
	Changes ManifestChanges `yaml:"changes,omitempty"`
}

// ManifestChanges carries either an aggregate status or per-file statuses
// keyed by input file path.
type ManifestChanges struct {
	Status string            `yaml:"status,omitempty"`
	Files  map[string]string `yaml:"files,omitempty"`
}
