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

package batch

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/radanalyticsio/sparkimage/build"
	"github.com/radanalyticsio/sparkimage/catalog"
	"github.com/radanalyticsio/sparkimage/logging"
	"github.com/radanalyticsio/sparkimage/platform"
	"github.com/radanalyticsio/sparkimage/reconcile"
)

// localBuilder is the local build backend.
type localBuilder interface {
	Build(ctx context.Context, builderImage, outputTag string, source build.Source) error
}

// Runner iterates targets sequentially and accumulates per-target outcomes.
// Targets never interleave; the only blocking operation is the build wait.
type Runner struct {
	client     platform.Client
	catalog    catalog.Catalog
	reconciler *reconcile.Reconciler
	local      localBuilder
	verbose    bool
}

// NewRunner creates a batch runner over the given client and catalog.
// s2iBinary is the local build tool used when a pass runs in local mode.
func NewRunner(client platform.Client, cat catalog.Catalog, s2iBinary string, verbose bool) *Runner {
	return &Runner{
		client:     client,
		catalog:    cat,
		reconciler: reconcile.NewReconciler(client),
		local:      build.NewLocalDriver(s2iBinary),
		verbose:    verbose,
	}
}

// resolve maps requested names to catalog targets, routing unknown names to
// the Ignored set. An empty request means the full catalog.
func (r *Runner) resolve(ctx context.Context, names []string, outcome *Outcome) []catalog.Target {
	if len(names) == 0 {
		return r.catalog.All()
	}

	targets := make([]catalog.Target, 0, len(names))
	for _, name := range names {
		t, ok := r.catalog.Lookup(name)
		if !ok {
			if suggestion := r.catalog.Suggest(name); suggestion != "" {
				logging.WarnContext(ctx, "unknown target %q (did you mean %q?)", name, suggestion)
			} else {
				logging.WarnContext(ctx, "unknown target %q", name)
			}
			outcome.Ignore(name)
			continue
		}
		targets = append(targets, t)
	}
	return targets
}

// ownershipSelector is the label selector matching one target's resources.
func ownershipSelector(name string) string {
	return fmt.Sprintf("%s=%s", reconcile.OwnershipLabel, name)
}

// abortsRun reports whether an error poisons every later platform call and
// must end the invocation instead of failing a single target.
func abortsRun(err error) bool {
	return platform.IsTransport(err) || stderrors.Is(err, platform.ErrNotLoggedIn)
}

// BuildOptions configures one build pass.
type BuildOptions struct {
	// Targets are the requested names; empty means the whole catalog.
	Targets []string
	// Source is the resolved local artifact.
	Source build.Source
	// Tag is the destination tag, "complete" by default.
	Tag string
	// Local selects the local backend, bypassing the platform entirely.
	Local bool
}

// Build reconciles and builds each target. In local mode the reconciler is
// skipped and images are produced by the local tool. A transport failure
// aborts the whole run with the partial outcome accumulated so far; anything
// else fails only the target it hit.
func (r *Runner) Build(ctx context.Context, opts BuildOptions) (*Outcome, error) {
	outcome := &Outcome{}
	driver := build.NewDriver(r.client, r.verbose)

	for _, target := range r.resolve(ctx, opts.Targets, outcome) {
		name := string(target.Name)

		if opts.Local {
			outputTag := fmt.Sprintf("%s:%s", name, opts.Tag)
			if err := r.local.Build(ctx, target.BuilderImageRef, outputTag, opts.Source); err != nil {
				outcome.Fail(name, err)
				continue
			}
			outcome.Succeed(name)
			continue
		}

		result, err := r.reconciler.Reconcile(ctx, target, opts.Tag)
		if err != nil {
			if abortsRun(err) {
				return outcome, err
			}
			outcome.Fail(name, err)
			continue
		}
		logging.DebugContext(ctx, "build config for %s: %s", name, result)

		if _, err := driver.Run(ctx, name, opts.Source); err != nil {
			if abortsRun(err) {
				return outcome, err
			}
			outcome.Fail(name, err)
			continue
		}
		outcome.Succeed(name)
	}
	return outcome, nil
}

// Scope selects what clean removes.
type Scope string

// Clean scopes.
const (
	ScopeBuild       Scope = "build"
	ScopeImageStream Scope = "imagestream"
	ScopeAll         Scope = "all"
)

// ParseScope validates a clean sub-target argument.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeBuild, ScopeImageStream, ScopeAll:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("invalid clean scope %q: must be one of build, imagestream, all", s)
	}
}

// Clean removes tool-owned resources per scope. Unowned build configurations
// block the target; missing resources are already-satisfied, not errors.
// A transport failure aborts the whole run.
func (r *Runner) Clean(ctx context.Context, scope Scope, names []string) (*Outcome, error) {
	outcome := &Outcome{}

	for _, target := range r.resolve(ctx, names, outcome) {
		name := string(target.Name)

		if err := r.checkOwnership(ctx, name); err != nil {
			if abortsRun(err) {
				return outcome, err
			}
			outcome.Fail(name, err)
			continue
		}

		var err error
		switch scope {
		case ScopeBuild:
			err = r.cleanBuild(ctx, name)
		case ScopeImageStream:
			err = r.cleanImageStream(ctx, target)
		case ScopeAll:
			if err = r.cleanBuild(ctx, name); err == nil {
				err = r.cleanImageStream(ctx, target)
			}
		}
		if err != nil {
			if abortsRun(err) {
				return outcome, err
			}
			outcome.Fail(name, err)
			continue
		}
		outcome.Succeed(name)
	}
	return outcome, nil
}

// checkOwnership blocks cleanup when a build configuration exists for the
// target but was not created by this tool.
func (r *Runner) checkOwnership(ctx context.Context, name string) error {
	bc, err := r.client.GetBuildConfig(ctx, name)
	if platform.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !reconcile.IsOwnedByTool(bc) {
		return &reconcile.OwnershipError{Kind: "build configuration", Name: name}
	}
	return nil
}

func (r *Runner) cleanBuild(ctx context.Context, name string) error {
	selector := ownershipSelector(name)
	if err := r.client.DeleteByLabel(ctx, "buildconfigs", selector); err != nil {
		return err
	}
	return r.client.DeleteByLabel(ctx, "builds", selector)
}

// cleanImageStream removes the target's labeled streams, then restores a
// bare stream pointing at the complete image so consumers keep resolving.
func (r *Runner) cleanImageStream(ctx context.Context, target catalog.Target) error {
	name := string(target.Name)
	if err := r.client.DeleteByLabel(ctx, "imagestreams", ownershipSelector(name)); err != nil {
		return err
	}

	dest := fmt.Sprintf("%s:%s", name, target.DefaultUseTag())
	if err := r.client.TagImage(ctx, target.CompleteImageRef, dest); err != nil {
		return err
	}
	if err := r.client.Label(ctx, "imagestream", name, reconcile.OwnershipLabel, name); err != nil {
		return err
	}
	return r.client.EnableImageLookup(ctx, name)
}
