/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package main implements the sparkimage CLI for driving Spark image
// pipelines on an OpenShift project: reconciling build configurations and
// image streams, running builds, cleaning up, and repointing consumers.
package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/radanalyticsio/sparkimage/catalog"
	"github.com/radanalyticsio/sparkimage/config"
	"github.com/radanalyticsio/sparkimage/logging"
	"github.com/radanalyticsio/sparkimage/platform"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Context key type for storing config
type configKeyType struct{}

var (
	// configKey is the context key for storing the config
	configKey = configKeyType{}

	// Root command options
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "sparkimage",
	Short: "Sparkimage - Spark image pipeline manager for OpenShift",
	Long: `Sparkimage drives the radanalytics Spark image pipelines on an OpenShift
project: it reconciles build configurations and image streams for each named
target, runs binary builds from a Spark distribution, and repoints templates
and config maps at the resulting images.`,
	Version:           version,
	PersistentPreRunE: initConfig,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is $HOME/.sparkimage/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json, color)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Quiet mode - only show errors")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose mode - show debug output")
	rootCmd.PersistentFlags().StringP("project", "p", "", "OpenShift project to operate in (default is the client's current project)")

	// Add subcommands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}

// configFromContext retrieves the config from the command context.
// Returns nil if no config is stored in context.
func configFromContext(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey).(*config.Config); ok {
		return cfg
	}
	return nil
}

// initConfig initializes configuration with proper precedence:
// CLI Flags > Environment Variables > Config File > Defaults
func initConfig(cmd *cobra.Command, args []string) error {
	// 1. Load global config (handles defaults, env vars, and config file)
	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFromPath(cfgFile)
	} else {
		cfg, err = config.Load()
	}

	if err != nil {
		logging.Warn("failed to load config, using defaults: %v", err)
		cfg = &config.Config{}
	}

	// 2. Create a new Viper instance for flag binding
	v := viper.New()

	// Set defaults from loaded config
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("oc.project", cfg.OC.Project)
	v.SetDefault("registry.prefix", cfg.Registry.Prefix)
	v.SetDefault("tag.default", cfg.Tag.Default)

	// 3. Bind environment variables
	v.SetEnvPrefix("SPARKIMAGE")
	v.AutomaticEnv()

	// 4. Bind Cobra flags to Viper (this enables: flags > env > config > defaults)
	if err := v.BindPFlag("log.level", cmd.Root().PersistentFlags().Lookup("log-level")); err != nil {
		return fmt.Errorf("failed to bind log-level flag: %w", err)
	}
	if err := v.BindPFlag("log.format", cmd.Root().PersistentFlags().Lookup("log-format")); err != nil {
		return fmt.Errorf("failed to bind log-format flag: %w", err)
	}
	if err := v.BindPFlag("oc.project", cmd.Root().PersistentFlags().Lookup("project")); err != nil {
		return fmt.Errorf("failed to bind project flag: %w", err)
	}

	// Bind all subcommand flags to Viper for consistent precedence
	bindCommandFlagsToViper(v, cmd)

	// 5. Get final values from Viper (single source of truth)
	logLevel := v.GetString("log.level")
	logFormat := v.GetString("log.format")
	quiet, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")

	// 6. Initialize logging with final values
	if err := logging.Initialize(logLevel, logFormat, quiet, verbose); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	// 7. Update config with final Viper values (for use in subcommands)
	cfg.Log.Level = logLevel
	cfg.Log.Format = logFormat
	cfg.OC.Project = v.GetString("oc.project")
	cfg.Registry.Prefix = v.GetString("registry.prefix")
	cfg.Tag.Default = v.GetString("tag.default")

	// 8. Create a context-aware logger and store it in context
	logger := logging.FromContext(cmd.Context())
	ctx := context.WithValue(cmd.Context(), configKey, cfg)
	ctx = logging.WithLogger(ctx, logger)
	cmd.SetContext(ctx)

	return nil
}

// newClient builds the platform client from the resolved configuration.
func newClient(cfg *config.Config) platform.Client {
	return platform.NewOCClient(cfg.OC.Binary, cfg.OC.Project)
}

// newCatalog builds the target catalog from the resolved configuration.
func newCatalog(cfg *config.Config) catalog.Catalog {
	return catalog.New(catalog.Options{
		RegistryPrefix: cfg.Registry.Prefix,
		Features:       cfg.Features,
	})
}

// requireLogin checks the login session once up front. Remote subcommands
// refuse to run without one.
func requireLogin(ctx context.Context, client platform.Client) error {
	user, err := client.WhoAmI(ctx)
	if err != nil {
		return fmt.Errorf("not logged in to the platform, log in first: %w", err)
	}
	logging.DebugContext(ctx, "logged in as %s", user)
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// bindFlagsToViper binds all flags from a command to a Viper instance.
// The viperKey parameter namespaces the keys (e.g. "build" for build command flags).
func bindFlagsToViper(v *viper.Viper, cmd *cobra.Command, viperKey string) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if viperKey != "" {
			key = viperKey + "." + key
		}

		if err := v.BindPFlag(key, f); err != nil {
			logging.Warn("failed to bind flag %s to viper: %v", f.Name, err)
		}
	})
}

// bindCommandFlagsToViper binds flags from the current command and its parent
// persistent flags to Viper.
func bindCommandFlagsToViper(v *viper.Viper, cmd *cobra.Command) {
	bindFlagsToViper(v, cmd, commandPath(cmd))

	cmd.InheritedFlags().VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil {
			logging.Warn("failed to bind inherited flag %s to viper: %v", f.Name, err)
		}
	})
}

// commandPath returns the command path for Viper key namespacing, e.g.
// "sparkimage clean" returns "clean".
func commandPath(cmd *cobra.Command) string {
	var parts []string
	current := cmd

	for current != nil && current.Parent() != nil {
		parts = append([]string{current.Name()}, parts...)
		current = current.Parent()
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".")
}
