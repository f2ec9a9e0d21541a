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

package main

import (
	"fmt"
	"os"

	"github.com/radanalyticsio/sparkimage/artifact"
	"github.com/radanalyticsio/sparkimage/batch"
	"github.com/radanalyticsio/sparkimage/build"
	"github.com/radanalyticsio/sparkimage/config"
	"github.com/spf13/cobra"
)

// buildOptions holds command-line options for the build command
type buildOptions struct {
	local bool
	tag   string
}

var buildCmd *cobra.Command

func init() {
	opts := &buildOptions{}

	buildCmd = &cobra.Command{
		Use:   "build SPARK [targets...]",
		Short: "Build Spark images from a Spark distribution",
		Long: `Build the named targets (or the whole catalog) from a Spark distribution.

SPARK is a tarball path, a directory, or an http(s) URL. When a checksum
sidecar (.sha512 or .sha256) exists next to the artifact it is verified
before any build starts.

Examples:
  # Build every target from a local tarball
  sparkimage build spark-2.3.0-bin-hadoop2.7.tgz

  # Build one target from a downloaded distribution
  sparkimage build https://archive.apache.org/dist/spark/spark-2.3.0/spark-2.3.0-bin-hadoop2.7.tgz radanalytics-pyspark

  # Build locally with s2i, tagging the result myimage:test
  sparkimage build -l -t test spark-2.3.0-bin-hadoop2.7.tgz radanalytics-pyspark`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, args[0], args[1:])
		},
	}

	buildCmd.Flags().BoolVarP(&opts.local, "local", "l", false, "Build locally with s2i instead of triggering platform builds")
	buildCmd.Flags().StringVarP(&opts.tag, "tag", "t", "", "Destination tag for completed images (default from config, normally \"complete\")")
}

func runBuild(cmd *cobra.Command, opts *buildOptions, spark string, targets []string) error {
	ctx := cmd.Context()
	cfg := configFromContext(cmd)
	if cfg == nil {
		return fmt.Errorf("configuration not initialized")
	}

	tag := opts.tag
	if tag == "" {
		tag = cfg.Tag.Default
	}

	client := newClient(cfg)
	if !opts.local {
		if err := requireLogin(ctx, client); err != nil {
			return err
		}
	}

	cacheDir, err := config.CacheDir("artifacts")
	if err != nil {
		return err
	}
	resolved, err := artifact.NewResolver(cacheDir).Resolve(ctx, spark)
	if err != nil {
		return fmt.Errorf("build input unusable: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	runner := batch.NewRunner(client, newCatalog(cfg), cfg.S2I.Binary, verbose)

	outcome, runErr := runner.Build(ctx, batch.BuildOptions{
		Targets: targets,
		Source:  build.Source{Path: resolved.Path, Dir: resolved.Dir},
		Tag:     tag,
		Local:   opts.local,
	})
	outcome.Fprint(os.Stdout)

	// Per-target failures are reported in the summary and do not fail the
	// invocation; a transport or auth failure aborts the run and does.
	return runErr
}
