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

// Package build drives builds to completion through one of two backends: a
// remote binary build bound to a reconciled build configuration, or a local
// source-to-image invocation that never touches the platform.
package build

import (
	"context"
	"fmt"

	"github.com/radanalyticsio/sparkimage/errors"
	"github.com/radanalyticsio/sparkimage/logging"
	"github.com/radanalyticsio/sparkimage/platform"
)

// Source is the prepared build input handed to a backend.
type Source struct {
	// Path is the local artifact location.
	Path string
	// Dir marks Path as a directory build context instead of a single file.
	Dir bool
}

// InProgressError means the target's latest build is still pending or
// running. The target is skipped for this invocation, never retried.
type InProgressError struct {
	Target    string
	BuildName string
	Phase     platform.BuildPhase
}

func (e *InProgressError) Error() string {
	return fmt.Sprintf("build %s for target %q is already in progress (%s); skipping", e.BuildName, e.Target, e.Phase)
}

// Result describes one completed remote build attempt.
type Result struct {
	// BuildName is "name-N" for the sequence number observed after the
	// trigger, or empty when no build started.
	BuildName string
	// Phase is the terminal phase, or PhaseStarting when the sequence
	// never left zero.
	Phase platform.BuildPhase
	// Started reports whether the sequence number advanced, i.e. a build
	// genuinely ran as part of this invocation.
	Started bool
	// Logs holds the build log when the retrieval policy fetched it.
	Logs string
}

// Driver runs remote binary builds and accounts for them through the build
// configuration's sequence number.
type Driver struct {
	client  platform.Client
	verbose bool
}

// NewDriver creates a remote build driver. verbose widens the log-retrieval
// policy to successful builds.
func NewDriver(client platform.Client, verbose bool) *Driver {
	return &Driver{client: client, verbose: verbose}
}

// buildName composes the platform's "name-N" build identifier.
func buildName(name string, sequence int64) string {
	return fmt.Sprintf("%s-%d", name, sequence)
}

// phaseOf reads a build configuration's current phase. A sequence of zero
// means no build has ever run.
func (d *Driver) phaseOf(ctx context.Context, name string, sequence int64) (platform.BuildPhase, error) {
	if sequence == 0 {
		return platform.PhaseStarting, nil
	}

	b, err := d.client.GetBuild(ctx, buildName(name, sequence))
	if platform.IsNotFound(err) {
		// The counter outlived its builds, e.g. after a clean.
		return platform.PhaseStarting, nil
	}
	if err != nil {
		return "", errors.Wrap("get build", buildName(name, sequence), err)
	}
	return b.Phase, nil
}

// Run triggers one binary build for the named build configuration and waits
// for completion. Logs are fetched only when the sequence advanced and either
// verbose mode is on or the build did not complete cleanly.
func (d *Driver) Run(ctx context.Context, name string, source Source) (*Result, error) {
	bc, err := d.client.GetBuildConfig(ctx, name)
	if err != nil {
		return nil, errors.Wrap("get build config", name, err)
	}
	pre := bc.LastVersion

	phase, err := d.phaseOf(ctx, name, pre)
	if err != nil {
		return nil, err
	}
	if phase.Active() {
		return nil, &InProgressError{Target: name, BuildName: buildName(name, pre), Phase: phase}
	}

	opts := platform.StartBuildOptions{Name: name, FromPath: source.Path, FromDir: source.Dir}

	logging.InfoContext(ctx, "starting build for %s from %s", name, source.Path)
	startErr := d.client.StartBinaryBuild(ctx, opts)
	if startErr != nil && platform.IsTransport(startErr) {
		return nil, errors.Wrap("start build", name, startErr)
	}

	bc, err = d.client.GetBuildConfig(ctx, name)
	if err != nil {
		return nil, errors.Wrap("get build config", name, err)
	}
	post := bc.LastVersion

	result := &Result{Started: post > pre, Phase: platform.PhaseStarting}
	if post > 0 {
		result.BuildName = buildName(name, post)
	}
	if result.Started {
		result.Phase, err = d.phaseOf(ctx, name, post)
		if err != nil {
			return nil, err
		}
	}

	failed := startErr != nil || (result.Started && result.Phase != platform.PhaseComplete)
	if result.Started && (d.verbose || failed) {
		logs, logErr := d.client.BuildLogs(ctx, result.BuildName)
		if logErr != nil {
			logging.WarnContext(ctx, "could not retrieve logs for %s: %v", result.BuildName, logErr)
		} else {
			result.Logs = logs
			logging.OutputContext(ctx, logs)
		}
	}

	if failed {
		if startErr != nil {
			return result, errors.Wrap("run build", name, startErr)
		}
		return result, fmt.Errorf("build %s finished in phase %s", result.BuildName, result.Phase)
	}
	return result, nil
}
