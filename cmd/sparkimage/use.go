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

	"github.com/radanalyticsio/sparkimage/batch"
	"github.com/spf13/cobra"
)

// useOptions holds command-line options for the use command
type useOptions struct {
	defaults bool
}

var useCmd *cobra.Command

func init() {
	opts := &useOptions{}

	useCmd = &cobra.Command{
		Use:   "use (-d | TAG) [targets...]",
		Short: "Point consuming templates and config maps at a tag",
		Long: `Repoint each target's consuming configuration object (template or config
map) at the chosen image stream tag, without touching the stream itself.

Either pass an explicit TAG, or -d to select each target family's default
tag. The two are mutually exclusive.

Examples:
  # Point every consumer at the freshly built complete images
  sparkimage use complete

  # Restore the tool-defined default tags for two targets
  sparkimage use -d openshift-spark radanalytics-pyspark`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUse(cmd, opts, args)
		},
	}

	useCmd.Flags().BoolVarP(&opts.defaults, "defaults", "d", false, "Use each target family's default tag")

	// useCmd is built in this init rather than a var initializer, so it must
	// be registered here: root.go's init runs first (file order) and would
	// add a nil command.
	rootCmd.AddCommand(useCmd)
}

func runUse(cmd *cobra.Command, opts *useOptions, args []string) error {
	ctx := cmd.Context()
	cfg := configFromContext(cmd)
	if cfg == nil {
		return fmt.Errorf("configuration not initialized")
	}

	// Argument shape must be settled before any remote call.
	tag := ""
	targets := args
	if !opts.defaults {
		if len(args) == 0 {
			return fmt.Errorf("either a TAG argument or -d is required")
		}
		tag = args[0]
		targets = args[1:]
	} else if len(args) > 0 {
		cat := newCatalog(cfg)
		if _, known := cat.Lookup(args[0]); !known {
			if suggestion := cat.Suggest(args[0]); suggestion != "" {
				return fmt.Errorf("%q is not a known target (did you mean %q?); -d and an explicit TAG are mutually exclusive", args[0], suggestion)
			}
			return fmt.Errorf("%q is not a known target; -d and an explicit TAG are mutually exclusive", args[0])
		}
	}

	client := newClient(cfg)
	if err := requireLogin(ctx, client); err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	runner := batch.NewRunner(client, newCatalog(cfg), cfg.S2I.Binary, verbose)

	outcome, runErr := runner.Use(ctx, batch.UseOptions{
		Tag:      tag,
		Defaults: opts.defaults,
		Targets:  targets,
	})
	outcome.Fprint(os.Stdout)
	return runErr
}
