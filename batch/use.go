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
	"fmt"

	"github.com/radanalyticsio/sparkimage/catalog"
	"github.com/radanalyticsio/sparkimage/errors"
	"github.com/radanalyticsio/sparkimage/logging"
)

// UseOptions configures one use pass. Exactly one of Tag or Defaults is set;
// the CLI rejects the other combinations before any remote call.
type UseOptions struct {
	// Tag is the explicit tag to point consumers at.
	Tag string
	// Defaults selects each target family's default tag instead.
	Defaults bool
	// Targets are the requested names; empty means the whole catalog.
	Targets []string
}

// Use repoints each target's consuming configuration object at the chosen
// tag without touching the image stream itself. A transport failure aborts
// the whole run.
func (r *Runner) Use(ctx context.Context, opts UseOptions) (*Outcome, error) {
	outcome := &Outcome{}

	for _, target := range r.resolve(ctx, opts.Targets, outcome) {
		name := string(target.Name)

		tag := opts.Tag
		if opts.Defaults {
			tag = target.DefaultUseTag()
		}

		if err := r.repoint(ctx, target, tag); err != nil {
			if abortsRun(err) {
				return outcome, err
			}
			outcome.Fail(name, err)
			continue
		}
		logging.InfoContext(ctx, "%s %s now uses %s:%s", target.ConfigKind, target.ConfigObject, name, tag)
		outcome.Succeed(name)
	}
	return outcome, nil
}

func (r *Runner) repoint(ctx context.Context, target catalog.Target, tag string) error {
	name := string(target.Name)

	if target.ConfigKind == catalog.ConsumerTemplate {
		image := fmt.Sprintf("%s:%s", name, tag)
		return errors.Wrap("patch template", target.ConfigObject,
			r.client.PatchTemplateImage(ctx, target.ConfigObject, name, image))
	}

	value, err := r.configMapValue(ctx, target, tag)
	if err != nil {
		return err
	}
	return errors.Wrap("patch config map", target.ConfigObject,
		r.client.PatchConfigMapKey(ctx, target.ConfigObject, catalog.ConfigMapImageKey, value))
}

// configMapValue is the image reference written into a config map consumer.
// Non-default tags are substituted with the tag's fully qualified pull spec
// because config map consumers cannot rely on implicit local resolution for
// anything but the default tag.
func (r *Runner) configMapValue(ctx context.Context, target catalog.Target, tag string) (string, error) {
	name := string(target.Name)
	short := fmt.Sprintf("%s:%s", name, tag)

	if tag == target.DefaultUseTag() {
		return short, nil
	}

	ist, err := r.client.GetImageStreamTag(ctx, name, tag)
	if err != nil {
		return "", errors.Wrap("resolve pull spec", short, err)
	}
	if ist.DockerImageReference == "" {
		return "", fmt.Errorf("image stream tag %s has no pull spec", short)
	}
	return ist.DockerImageReference, nil
}
