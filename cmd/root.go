package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmmoran/autoctor/pkg/autoctor"
)

const levelTrace = slog.Level(-8)

var (
	configFiles    []string
	level, version string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "autoctor",
	Short:         "generate constructors",
	Long:          "Generate NewX constructors for struct types marked with //autoctor:construct",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		initOutput()
		return nil
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&level, "level", "l", "info", "log level (trace, debug, info, warn, error, debug+1, etc)")
	flags.StringSliceVar(&configFiles, "config", []string{}, "config file(s) - multiple config files are merged with last specified file having highest priority")

	flags.StringP("input-directory", "i", ".", "directory the package patterns are resolved from")
	flags.StringSliceP("patterns", "p", []string{"./..."}, "package patterns to scan")
	flags.String("post-construct", "", "default post-construct method name for every package")
	flags.String("tag-key", "ctor", "struct tag key holding field options")
	flags.StringSliceP("exclude-types", "t", []string{}, "never generate constructors for the named types")
	flags.StringSliceP("exclude-tags", "T", []string{}, "treat fields with matching tags as initialized elsewhere, ex: gorm:\"-\"")
	flags.String("manifest", autoctor.DefaultManifest, "manifest file, relative to the module root")

	for key, flag := range map[string]string{
		"in_dir":         "input-directory",
		"patterns":       "patterns",
		"post_construct": "post-construct",
		"tag_key":        "tag-key",
		"exclude_types":  "exclude-types",
		"exclude_tags":   "exclude-tags",
		"manifest":       "manifest",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func parseLevel(s string) (slog.Level, error) {
	var ll slog.Level
	if err := (&ll).UnmarshalText([]byte(s)); err != nil {
		if strings.EqualFold(s, "trace") {
			return levelTrace, nil
		}
		return 0, errors.WithHint(errors.Newf("invalid log level %q", s), "use trace, debug, info, warn or error")
	}
	return ll, nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	ll, err := parseLevel(level)
	if err != nil {
		return err
	}
	l := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource:   false,
		Level:       ll,
		ReplaceAttr: nil,
	}))
	slog.SetDefault(l)

	if len(configFiles) > 0 {
		// Use config file from the flag.
		viper.SetConfigFile(configFiles[0])
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc")
		viper.SetConfigType("yaml")
		viper.SetConfigName("autoctor")
	}

	viper.SetEnvPrefix("AUTOCTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		l.With("config", viper.ConfigFileUsed()).Debug("using config file(s)")
	} else {
		l.With("error", err, "config", viper.ConfigFileUsed()).Debug("unable to use config file(s)")
	}
	if len(configFiles) > 1 {
		for _, file := range configFiles[1:] {
			if configBytes, err := os.ReadFile(file); err == nil {
				if err = viper.MergeConfig(bytes.NewReader(configBytes)); err != nil {
					l.With("error", err, "file", file).Warn("failed to merge config file")
				} else {
					l.With("file", file).Debug("merged config file")
				}
			}
		}
	}
	if len(version) > 0 {
		viper.Set("version", version)
	}

	// a level in the config file applies when --level was left at its default
	if llstr := viper.GetString("log.level"); llstr != "" && !rootCmd.PersistentFlags().Changed("level") {
		ll, err := parseLevel(llstr)
		if err != nil {
			return errors.Wrap(err, "log.level")
		}
		l = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			AddSource:   false,
			Level:       ll,
			ReplaceAttr: nil,
		}))
		slog.SetDefault(l)
	}
	return nil
}

// options builds generator options from flags, environment and config files.
func options() *autoctor.Options {
	o := autoctor.NewOptions()
	o.InDir = viper.GetString("in_dir")
	o.Patterns = viper.GetStringSlice("patterns")
	o.PostConstruct = viper.GetString("post_construct")
	o.TagKey = viper.GetString("tag_key")
	o.ExcludeTypes = viper.GetStringSlice("exclude_types")
	o.Manifest = viper.GetString("manifest")
	o.Normalize(viper.GetStringSlice("exclude_tags")...)
	return o
}
