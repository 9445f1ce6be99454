package autoctor

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cmmoran/autoctor/internal/parser"
)

// TagFilter marks a field as initialized elsewhere when the struct tag under
// Key contains Value, ex: gorm:"-".
type TagFilter = parser.TagFilter

const DefaultManifest = ".autoctor.yaml"

// Options control loading and generation.
//
// InDir         – directory the package patterns are resolved from
// Patterns      – go/packages patterns to scan (default ./...)
// PostConstruct – program-wide default post-construct method name
// TagKey        – struct tag key holding field options (default ctor)
// ExcludeTypes  – names of types never constructed (case‑insensitive)
// ExcludeByTags – filters marking fields as initialized elsewhere
// Manifest      – manifest path; relative paths resolve against the module root
type Options struct {
	InDir         string      `json:"in_dir,omitempty" yaml:"in_dir,omitempty" toml:"in_dir,omitempty" mapstructure:"in_dir,omitempty"`
	Patterns      []string    `json:"patterns,omitempty" yaml:"patterns,omitempty" toml:"patterns,omitempty" mapstructure:"patterns,omitempty"`
	PostConstruct string      `json:"post_construct,omitempty" yaml:"post_construct,omitempty" toml:"post_construct,omitempty" mapstructure:"post_construct,omitempty"`
	TagKey        string      `json:"tag_key,omitempty" yaml:"tag_key,omitempty" toml:"tag_key,omitempty" mapstructure:"tag_key,omitempty"`
	ExcludeTypes  []string    `json:"exclude_types,omitempty" yaml:"exclude_types,omitempty" toml:"exclude_types,omitempty" mapstructure:"exclude_types,omitempty"`
	ExcludeByTags []TagFilter `json:"exclude_by_tags,omitempty" yaml:"exclude_by_tags,omitempty" toml:"exclude_by_tags,omitempty" mapstructure:"exclude_by_tags,omitempty"`
	Manifest      string      `json:"manifest,omitempty" yaml:"manifest,omitempty" toml:"manifest,omitempty" mapstructure:"manifest,omitempty"`
}

func NewOptions() *Options {
	return &Options{
		InDir:    ".",
		Patterns: []string{"./..."},
		TagKey:   parser.DefaultTagKey,
		Manifest: DefaultManifest,
	}
}

// Normalize fills defaults and parses key:value exclude-tag strings.
// Malformed filters are logged and dropped.
func (o *Options) Normalize(excludeByTagsStrings ...string) {
	for _, s := range excludeByTagsStrings {
		key, val, ok := strings.Cut(s, ":")
		if !ok || key == "" {
			slog.Default().With("filter", s).Warn("ignoring malformed exclude tag, expected key:value")
			continue
		}
		o.ExcludeByTags = append(o.ExcludeByTags, TagFilter{Key: key, Value: strings.Trim(val, `"`)})
	}
	if len(o.InDir) == 0 {
		o.InDir = "."
	}
	if abs, err := filepath.Abs(o.InDir); err == nil {
		o.InDir = abs
	}
	if len(o.Patterns) == 0 {
		o.Patterns = []string{"./..."}
	}
	if len(o.TagKey) == 0 {
		o.TagKey = parser.DefaultTagKey
	}
	if len(o.Manifest) == 0 {
		o.Manifest = DefaultManifest
	}
	for i, ex := range o.ExcludeTypes {
		o.ExcludeTypes[i] = strings.TrimSpace(ex)
	}
}

// functional option pattern ---------------------------------------------------

type Option func(*Options)

func WithInDir(d string) Option            { return func(o *Options) { o.InDir = d } }
func WithPatterns(p ...string) Option      { return func(o *Options) { o.Patterns = append(o.Patterns[:0:0], p...) } }
func WithPostConstruct(name string) Option { return func(o *Options) { o.PostConstruct = name } }
func WithTagKey(k string) Option           { return func(o *Options) { o.TagKey = k } }
func WithManifest(path string) Option      { return func(o *Options) { o.Manifest = path } }
func WithExcludeTypes(names ...string) Option {
	return func(o *Options) {
		for _, n := range names {
			o.ExcludeTypes = append(o.ExcludeTypes, strings.TrimSpace(n))
		}
	}
}
func WithExcludeByTag(key, val string) Option {
	return func(o *Options) { o.ExcludeByTags = append(o.ExcludeByTags, TagFilter{Key: key, Value: val}) }
}

func (o *Options) parserConfig(logger *slog.Logger) parser.Config {
	return parser.Config{
		Dir:           o.InDir,
		Patterns:      o.Patterns,
		TagKey:        o.TagKey,
		ExcludeTypes:  o.ExcludeTypes,
		ExcludeByTags: o.ExcludeByTags,
		PostConstruct: o.PostConstruct,
		Logger:        logger,
	}
}
