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

package reconcile

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/radanalyticsio/sparkimage/logging"
	"github.com/radanalyticsio/sparkimage/platform"
)

// Prober queries the platform for the current state of named resources
// without mutating anything. Absence is a normal outcome (nil, nil); only
// transport-class failures surface as errors.
type Prober struct {
	client platform.Client

	// newBackOff builds the retry policy used before declaring a tag
	// dangling. Replaced in tests to avoid real delays.
	newBackOff func() backoff.BackOff
}

// NewProber creates a prober over the given client.
func NewProber(client platform.Client) *Prober {
	return &Prober{
		client: client,
		newBackOff: func() backoff.BackOff {
			// 3 attempts total, spaced out enough to ride over a
			// transient lookup failure.
			return backoff.WithMaxRetries(backoff.NewConstantBackOff(250*time.Millisecond), 2)
		},
	}
}

// BuildConfig returns the named build configuration, or nil when absent.
func (p *Prober) BuildConfig(ctx context.Context, name string) (*platform.BuildConfig, error) {
	bc, err := p.client.GetBuildConfig(ctx, name)
	if platform.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bc, nil
}

// ImageStream returns the named image stream, or nil when absent.
func (p *Prober) ImageStream(ctx context.Context, name string) (*platform.ImageStream, error) {
	stream, err := p.client.GetImageStream(ctx, name)
	if platform.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// ImageStreamTag returns one tag of an image stream, or nil when absent.
func (p *Prober) ImageStreamTag(ctx context.Context, stream, tag string) (*platform.ImageStreamTag, error) {
	ist, err := p.client.GetImageStreamTag(ctx, stream, tag)
	if platform.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ist, nil
}

// DanglingTag reports whether stream:tag is dangling: enumerable from the
// parent stream's status yet failing individual lookup. Such a tag must be
// deleted before anything recreates a destination matching it, or creation
// fails with a collision.
//
// A single failed lookup is not proof; the lookup is retried with a short
// constant backoff and the tag is declared dangling only if every attempt
// comes back NotFound. Transport failures abort instead of deleting.
func (p *Prober) DanglingTag(ctx context.Context, stream, tag string) (bool, error) {
	parent, err := p.ImageStream(ctx, stream)
	if err != nil {
		return false, err
	}
	if parent == nil || !parent.HasTag(tag) {
		return false, nil
	}

	lookup := func() error {
		_, err := p.client.GetImageStreamTag(ctx, stream, tag)
		if err == nil {
			return nil
		}
		if platform.IsNotFound(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	err = backoff.Retry(lookup, backoff.WithContext(p.newBackOff(), ctx))
	if err == nil {
		return false, nil
	}
	if platform.IsNotFound(err) {
		logging.WarnContext(ctx, "image stream tag %s:%s is enumerable but not retrievable; treating as dangling", stream, tag)
		return true, nil
	}
	return false, err
}
