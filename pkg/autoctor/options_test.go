package autoctor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(ttt *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		tags    []string
		want    []TagFilter
		pattern []string
		tagKey  string
	}{
		{
			name:    "defaults",
			pattern: []string{"./..."},
			tagKey:  "ctor",
		},
		{
			name:    "exclude tags",
			tags:    []string{"gorm:-", `dto:"-"`, "malformed", ":x"},
			want:    []TagFilter{{Key: "gorm", Value: "-"}, {Key: "dto", Value: "-"}},
			pattern: []string{"./..."},
			tagKey:  "ctor",
		},
		{
			name:    "functional options",
			opts:    []Option{WithPatterns("./a/...", "./b"), WithTagKey("inject"), WithExcludeByTag("gorm", "-")},
			want:    []TagFilter{{Key: "gorm", Value: "-"}},
			pattern: []string{"./a/...", "./b"},
			tagKey:  "inject",
		},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			o := &Options{}
			for _, fn := range tt.opts {
				fn(o)
			}
			o.Normalize(tt.tags...)

			assert.Equal(t, tt.want, o.ExcludeByTags)
			assert.Equal(t, tt.pattern, o.Patterns)
			assert.Equal(t, tt.tagKey, o.TagKey)
			assert.Equal(t, DefaultManifest, o.Manifest)
			assert.True(t, filepath.IsAbs(o.InDir))
		})
	}
}

func TestOptionsParserConfig(t *testing.T) {
	o := NewOptions()
	for _, fn := range []Option{
		WithInDir("/src"),
		WithPostConstruct("init"),
		WithExcludeTypes(" Legacy ", "Old"),
		WithManifest("gen/manifest.yaml"),
	} {
		fn(o)
	}
	cfg := o.parserConfig(nil)

	require.Equal(t, "/src", cfg.Dir)
	assert.Equal(t, "init", cfg.PostConstruct)
	assert.Equal(t, []string{"Legacy", "Old"}, cfg.ExcludeTypes)
	assert.Equal(t, "gen/manifest.yaml", o.Manifest)
}
