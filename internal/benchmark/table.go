package benchmark

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"
	"gopkg.in/yaml.v3"

	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/pkg/models"
	"go-creative-analyzer/pkg/validation"
)

//go:embed profiles.yaml
var defaultProfiles []byte

// DefaultProfile is used when a request names no profile
const DefaultProfile = "socialMedia"

// Profile holds the thresholds of one creative type
type Profile struct {
	MinContrast int                         `yaml:"minContrast" validate:"gte=0,lte=100"`
	MinHotspots int                         `yaml:"minHotspots" validate:"gte=0"`
	MaxElements int                         `yaml:"maxElements" validate:"gte=0"`
	Platforms   map[string]PlatformOverride `yaml:"platforms,omitempty" validate:"omitempty,dive,keys,required,endkeys"`
}

// PlatformOverride replaces the fields it sets
type PlatformOverride struct {
	MinContrast *int `yaml:"minContrast,omitempty" validate:"omitempty,gte=0,lte=100"`
	MinHotspots *int `yaml:"minHotspots,omitempty" validate:"omitempty,gte=0"`
	MaxElements *int `yaml:"maxElements,omitempty" validate:"omitempty,gte=0"`
}

type document struct {
	Profiles map[string]Profile `yaml:"profiles" validate:"required,min=1,dive,keys,required,endkeys"`
}

// Table is a read-only set of benchmark profiles
type Table struct {
	profiles map[string]Profile
}

// Default returns the built-in profile table
func Default() *Table {
	t, err := Parse(bytes.NewReader(defaultProfiles))
	if err != nil {
		panic(fmt.Sprintf("embedded benchmark profiles are invalid: %v", err))
	}
	return t
}

// LoadFile reads a profile table from a YAML file, or the built-in table when path is empty
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open benchmark file: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("benchmark file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a YAML profile table
func Parse(r io.Reader) (*Table, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode benchmark profiles: %w", err)
	}
	if err := validation.ValidateStruct(doc); err != nil {
		return nil, err
	}
	return &Table{profiles: doc.Profiles}, nil
}

// Profiles returns the profile names in sorted order
func (t *Table) Profiles() []string {
	names := make([]string, 0, len(t.profiles))
	for name := range t.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Platforms returns the platform names of a profile in sorted order
func (t *Table) Platforms(profile string) []string {
	p, ok := t.profiles[profile]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(p.Platforms))
	for name := range p.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the thresholds of profile, with the platform override
// applied when platform is not empty.
func (t *Table) Resolve(profile, platform string) (models.BenchmarkThresholds, error) {
	p, ok := t.profiles[profile]
	if !ok {
		return models.BenchmarkThresholds{}, apperrors.NewUnknownProfileError(profile, closest(profile, t.Profiles()))
	}

	th := models.BenchmarkThresholds{
		MinContrast: p.MinContrast,
		MinHotspots: p.MinHotspots,
		MaxElements: p.MaxElements,
	}
	if platform == "" {
		return th, nil
	}

	o, ok := p.Platforms[platform]
	if !ok {
		return models.BenchmarkThresholds{}, apperrors.NewUnknownPlatformError(profile, platform, closest(platform, t.Platforms(profile)))
	}
	if o.MinContrast != nil {
		th.MinContrast = *o.MinContrast
	}
	if o.MinHotspots != nil {
		th.MinHotspots = *o.MinHotspots
	}
	if o.MaxElements != nil {
		th.MaxElements = *o.MaxElements
	}
	return th, nil
}

// closest returns the candidate nearest to name, or "" when none is close
func closest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		if strings.EqualFold(c, name) {
			return c
		}
		d := levenshtein.Distance(strings.ToLower(name), strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	limit := len(name) / 3
	if limit < 2 {
		limit = 2
	}
	if bestDist < 0 || bestDist > limit {
		return ""
	}
	return best
}
