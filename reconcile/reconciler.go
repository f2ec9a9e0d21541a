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

// Package reconcile drives a target's build configuration and image stream
// from whatever state the platform is in to the desired one: leave in place,
// delete-and-recreate, or create fresh. Resources created by someone else are
// never touched; the target fails with an actionable error instead.
package reconcile

import (
	"context"
	"strings"

	"github.com/distribution/reference"
	"github.com/radanalyticsio/sparkimage/catalog"
	"github.com/radanalyticsio/sparkimage/errors"
	"github.com/radanalyticsio/sparkimage/logging"
	"github.com/radanalyticsio/sparkimage/platform"
)

// Result is the reconciliation outcome for one target.
type Result int

// Reconciliation outcomes.
const (
	// ResultUnchanged means the existing configuration already matches;
	// no creation call was made.
	ResultUnchanged Result = iota
	// ResultCreated means no configuration existed and one was created.
	ResultCreated
	// ResultRecreated means a mismatched, tool-owned configuration was
	// deleted and recreated.
	ResultRecreated
)

// String returns a human-readable outcome name.
func (r Result) String() string {
	switch r {
	case ResultUnchanged:
		return "unchanged"
	case ResultCreated:
		return "created"
	case ResultRecreated:
		return "recreated"
	default:
		return "unknown"
	}
}

// Reconciler compares desired vs. probed state for one target and applies
// the decision through the platform client.
type Reconciler struct {
	client platform.Client
	prober *Prober
}

// NewReconciler creates a reconciler over the given client.
func NewReconciler(client platform.Client) *Reconciler {
	return &Reconciler{client: client, prober: NewProber(client)}
}

// LocalBuilderRef resolves a fully qualified builder image reference to the
// stream name and "stream:tag" reference it mirrors to inside the project.
// The platform's build tooling re-mirrors external images into a local stream
// without the registry/namespace prefix.
func LocalBuilderRef(ref string) (localRef, stream string, err error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", "", errors.Wrap("parse builder image reference", ref, err)
	}

	tag := "latest"
	if tagged, ok := named.(reference.Tagged); ok {
		tag = tagged.Tag()
	}

	path := reference.Path(named)
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}

	return path + ":" + tag, path, nil
}

// Reconcile drives one target's build configuration to the desired state.
// destTag is the destination tag for the completed image.
func (r *Reconciler) Reconcile(ctx context.Context, target catalog.Target, destTag string) (Result, error) {
	name := string(target.Name)
	destination := name + ":" + destTag

	localRef, builderStream, err := LocalBuilderRef(target.BuilderImageRef)
	if err != nil {
		return ResultUnchanged, err
	}
	builderTag := strings.TrimPrefix(localRef, builderStream+":")

	// The builder cannot be referenced until both its stream and the
	// buildconfig are recreated together, so a missing builder tag forces
	// recreation and takes the stale stream with it.
	istagMissing := false
	builderIst, err := r.prober.ImageStreamTag(ctx, builderStream, builderTag)
	if err != nil {
		return ResultUnchanged, err
	}
	if builderIst == nil {
		logging.DebugContext(ctx, "builder tag %s missing; removing stream %s", localRef, builderStream)
		if err := r.client.DeleteImageStream(ctx, builderStream); err != nil && !platform.IsNotFound(err) {
			return ResultUnchanged, errors.Wrap("delete builder image stream", builderStream, err)
		}
		istagMissing = true
	}

	bc, err := r.prober.BuildConfig(ctx, name)
	if err != nil {
		return ResultUnchanged, err
	}

	if bc != nil {
		if !istagMissing &&
			bc.SourceType == platform.SourceBinary &&
			bc.SourceImage == localRef &&
			bc.Destination == destination {
			logging.DebugContext(ctx, "build config %s matches desired state", name)
			return ResultUnchanged, nil
		}

		if !IsOwnedByTool(bc) {
			return ResultUnchanged, &OwnershipError{Kind: "build configuration", Name: name}
		}

		if err := r.deleteDanglingDestination(ctx, name, destTag); err != nil {
			return ResultUnchanged, err
		}
		if err := r.client.DeleteBuildConfig(ctx, name); err != nil && !platform.IsNotFound(err) {
			return ResultUnchanged, errors.Wrap("delete build config", name, err)
		}
		if err := r.create(ctx, target, destination); err != nil {
			return ResultUnchanged, err
		}
		logging.InfoContext(ctx, "recreated build config %s -> %s", name, destination)
		return ResultRecreated, nil
	}

	if err := r.deleteDanglingDestination(ctx, name, destTag); err != nil {
		return ResultUnchanged, err
	}
	if err := r.create(ctx, target, destination); err != nil {
		return ResultUnchanged, err
	}
	logging.InfoContext(ctx, "created build config %s -> %s", name, destination)
	return ResultCreated, nil
}

// create issues the single declarative new-build call, carrying the ownership
// label and the full external builder reference.
func (r *Reconciler) create(ctx context.Context, target catalog.Target, destination string) error {
	name := string(target.Name)
	spec := platform.BinaryBuildConfigSpec{
		Name:         name,
		BuilderImage: target.BuilderImageRef,
		Destination:  destination,
		Labels:       map[string]string{OwnershipLabel: name},
	}
	return errors.Wrap("create build config", name, r.client.CreateBinaryBuildConfig(ctx, spec))
}

// deleteDanglingDestination clears a dangling destination tag before
// (re)creation, which would otherwise fail with a collision error.
func (r *Reconciler) deleteDanglingDestination(ctx context.Context, stream, tag string) error {
	dangling, err := r.prober.DanglingTag(ctx, stream, tag)
	if err != nil {
		return err
	}
	if !dangling {
		return nil
	}

	if err := r.client.DeleteImageStreamTag(ctx, stream, tag); err != nil && !platform.IsNotFound(err) {
		return errors.Wrapf("delete dangling image stream tag", err, "%s:%s", stream, tag)
	}
	return nil
}
