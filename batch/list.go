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
	"io"

	"github.com/fatih/color"
	"github.com/radanalyticsio/sparkimage/platform"
	"github.com/radanalyticsio/sparkimage/reconcile"
	"golang.org/x/sync/errgroup"
)

// listedKinds are the resource kinds enumerated by list, in print order.
var listedKinds = []string{"buildconfigs", "builds", "imagestreams"}

// Listing groups tool-owned resources by kind.
type Listing struct {
	// ByKind maps a listed kind to its resources, possibly empty.
	ByKind map[string][]platform.Resource
}

// List enumerates every platform resource carrying the ownership label,
// independent of the catalog. The lookups are read-only so the kinds are
// queried concurrently; target sequencing only applies to mutations.
func (r *Runner) List(ctx context.Context) (*Listing, error) {
	results := make([][]platform.Resource, len(listedKinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range listedKinds {
		g.Go(func() error {
			resources, err := r.client.ListByLabel(gctx, kind, reconcile.OwnershipLabel)
			if err != nil {
				return err
			}
			results[i] = resources
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	listing := &Listing{ByKind: make(map[string][]platform.Resource, len(listedKinds))}
	for i, kind := range listedKinds {
		listing.ByKind[kind] = results[i]
	}
	return listing, nil
}

// Fprint writes the listing, one titled section per kind with entries.
func (l *Listing) Fprint(w io.Writer) {
	empty := true
	for _, kind := range listedKinds {
		resources := l.ByKind[kind]
		if len(resources) == 0 {
			continue
		}
		empty = false
		fmt.Fprintln(w, color.CyanString("%s:", kind))
		for _, res := range resources {
			fmt.Fprintf(w, "  %s\n", res.Name)
		}
	}
	if empty {
		fmt.Fprintln(w, "no resources found")
	}
}
