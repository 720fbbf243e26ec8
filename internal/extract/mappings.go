package extract

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

//go:embed mappings.yaml
var defaultMappings []byte

// Filters are the keyword lists shipped alongside the rule tables: the
// procedure descriptions worth scanning per category, the report-text
// strings that identify relevant progress notes, and the tumor
// vocabulary used by downstream scripts.
type Filters struct {
	PathologyProcDescs      []string `koanf:"pathology_proc_descs" json:"pathology_proc_descs"`
	ImagingProcDescs        []string `koanf:"imaging_proc_descs" json:"imaging_proc_descs"`
	ProgressNoteTextFilters []string `koanf:"progress_note_text_filters" json:"progress_note_text_filters"`
	TumorKeywords           []string `koanf:"tumor_keywords" json:"tumor_keywords"`
}

// ProcDescs returns the procedure descriptions of interest for a
// category. Progress notes carry no such list; every proc desc is of
// interest there.
func (f Filters) ProcDescs(cat Category) []string {
	switch cat {
	case CategoryPathology:
		return f.PathologyProcDescs
	case CategoryImaging:
		return f.ImagingProcDescs
	default:
		return nil
	}
}

// mappingsFile is the on-disk shape of a mappings document: one ordered
// rule-set list per note category, plus the accompanying filter lists.
type mappingsFile struct {
	Filters   Filters   `koanf:"filters"`
	Pathology []RuleSet `koanf:"pathology"`
	Imaging   []RuleSet `koanf:"imaging"`
	Progress  []RuleSet `koanf:"progress"`
}

func parseMappingsFile(content []byte) (mappingsFile, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return mappingsFile{}, fmt.Errorf("failed to parse mappings: %w", err)
	}

	var mf mappingsFile
	if err := k.Unmarshal("", &mf); err != nil {
		return mappingsFile{}, fmt.Errorf("failed to unmarshal mappings: %w", err)
	}
	return mf, nil
}

// ParseMappings builds a registry from raw YAML mappings content.
func ParseMappings(content []byte) (*Registry, error) {
	mf, err := parseMappingsFile(content)
	if err != nil {
		return nil, err
	}

	sets := make(map[Category][]RuleSet)
	if len(mf.Pathology) > 0 {
		sets[CategoryPathology] = mf.Pathology
	}
	if len(mf.Imaging) > 0 {
		sets[CategoryImaging] = mf.Imaging
	}
	if len(mf.Progress) > 0 {
		sets[CategoryProgress] = mf.Progress
	}
	return NewRegistry(sets)
}

// ParseFilters reads the filter lists out of raw YAML mappings content.
// A document without a filters block yields empty lists.
func ParseFilters(content []byte) (Filters, error) {
	mf, err := parseMappingsFile(content)
	if err != nil {
		return Filters{}, err
	}
	return mf.Filters, nil
}

// LoadMappings reads a mappings YAML file and builds a registry from it.
func LoadMappings(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file %s: %w", path, err)
	}
	return ParseMappings(content)
}

// LoadFilters reads the filter lists from a mappings YAML file.
func LoadFilters(path string) (Filters, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Filters{}, fmt.Errorf("failed to read mappings file %s: %w", path, err)
	}
	return ParseFilters(content)
}

// DefaultRegistry builds a registry from the embedded default mapping
// tables. The embedded data is validated by tests, so failure to parse
// it is a build defect, hence the panic.
func DefaultRegistry() *Registry {
	r, err := ParseMappings(defaultMappings)
	if err != nil {
		panic(fmt.Sprintf("embedded mappings are invalid: %v", err))
	}
	return r
}

// DefaultFilters returns the filter lists shipped with the embedded
// mapping tables.
func DefaultFilters() Filters {
	f, err := ParseFilters(defaultMappings)
	if err != nil {
		panic(fmt.Sprintf("embedded mappings are invalid: %v", err))
	}
	return f
}
