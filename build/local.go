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

package build

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/radanalyticsio/sparkimage/errors"
	"github.com/radanalyticsio/sparkimage/logging"
)

// localRunFunc executes the local build tool and returns its combined output.
type localRunFunc func(ctx context.Context, binary string, args ...string) ([]byte, error)

func execLocal(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// LocalDriver produces a locally tagged image with a single source-to-image
// invocation. It never talks to the platform and needs no reconciliation.
type LocalDriver struct {
	binary string
	run    localRunFunc
}

// NewLocalDriver creates a local driver around the given s2i binary.
func NewLocalDriver(binary string) *LocalDriver {
	return &LocalDriver{binary: binary, run: execLocal}
}

// Build runs "s2i build <source> <builderImage> <outputTag>". The output tag
// is the target name plus destination tag, same shape as the remote path.
func (d *LocalDriver) Build(ctx context.Context, builderImage, outputTag string, source Source) error {
	args := []string{"build", source.Path, builderImage, outputTag}

	logging.InfoContext(ctx, "building %s locally from %s", outputTag, source.Path)
	out, err := d.run(ctx, d.binary, args...)
	if err != nil {
		if len(out) > 0 {
			logging.OutputContext(ctx, strings.TrimSpace(string(out)))
		}
		return errors.Wrap("build image locally", outputTag, err)
	}

	logging.DebugContext(ctx, "local build of %s finished", outputTag)
	return nil
}
