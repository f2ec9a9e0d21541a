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

var cleanCmd = &cobra.Command{
	Use:   "clean {build|imagestream|all} [targets...]",
	Short: "Remove tool-owned pipeline resources",
	Long: `Remove resources this tool created for the named targets (or the whole
catalog), selected by scope:

  build        delete owned build configurations and builds
  imagestream  delete owned image streams, then restore a bare stream
               pointing at the complete image
  all          both, build scope first

Resources created by someone else are never touched.

Examples:
  # Remove build configurations and builds for one target
  sparkimage clean build radanalytics-pyspark

  # Reset every target's image streams to the published complete images
  sparkimage clean imagestream`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClean(cmd, args[0], args[1:])
	},
}

func runClean(cmd *cobra.Command, scopeArg string, targets []string) error {
	ctx := cmd.Context()
	cfg := configFromContext(cmd)
	if cfg == nil {
		return fmt.Errorf("configuration not initialized")
	}

	scope, err := batch.ParseScope(scopeArg)
	if err != nil {
		return err
	}

	client := newClient(cfg)
	if err := requireLogin(ctx, client); err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	runner := batch.NewRunner(client, newCatalog(cfg), cfg.S2I.Binary, verbose)

	outcome, runErr := runner.Clean(ctx, scope, targets)
	outcome.Fprint(os.Stdout)
	return runErr
}
