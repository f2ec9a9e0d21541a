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
	"fmt"

	"github.com/radanalyticsio/sparkimage/platform"
)

// OwnershipLabel marks every build configuration and image stream this tool
// creates. Its value is always the owning target's name.
const OwnershipLabel = "radanalytics.io/sparkimage"

// IsOwnedByTool reports whether a build configuration was created by this
// tool: the ownership label must be present and equal to the configuration's
// own name. Used exclusively as a precondition before any delete.
func IsOwnedByTool(bc *platform.BuildConfig) bool {
	if bc == nil {
		return false
	}
	return bc.Labels[OwnershipLabel] == bc.Name
}

// OwnershipError blocks destructive action on a resource somebody else
// created. Fatal to the target, not to the batch.
type OwnershipError struct {
	Kind string
	Name string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf(
		"%s %q exists but was not created by this tool and cannot be recreated automatically; delete it manually and rerun",
		e.Kind, e.Name)
}
