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
	"testing"

	"github.com/radanalyticsio/sparkimage/platform"
	"github.com/stretchr/testify/assert"
)

func TestIsOwnedByTool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bc   *platform.BuildConfig
		want bool
	}{
		{
			name: "owned build config",
			bc: &platform.BuildConfig{
				Name:   "radanalytics-pyspark",
				Labels: map[string]string{OwnershipLabel: "radanalytics-pyspark"},
			},
			want: true,
		},
		{
			name: "label value does not match resource name",
			bc: &platform.BuildConfig{
				Name:   "radanalytics-pyspark",
				Labels: map[string]string{OwnershipLabel: "openshift-spark"},
			},
			want: false,
		},
		{
			name: "no labels at all",
			bc:   &platform.BuildConfig{Name: "radanalytics-pyspark"},
			want: false,
		},
		{
			name: "unrelated labels only",
			bc: &platform.BuildConfig{
				Name:   "radanalytics-pyspark",
				Labels: map[string]string{"app": "spark"},
			},
			want: false,
		},
		{
			name: "nil build config",
			bc:   nil,
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsOwnedByTool(tc.bc))
		})
	}
}

func TestOwnershipErrorMessage(t *testing.T) {
	t.Parallel()

	err := &OwnershipError{Kind: "build configuration", Name: "radanalytics-pyspark"}
	assert.Contains(t, err.Error(), "radanalytics-pyspark")
	assert.Contains(t, err.Error(), "not created by this tool")
	assert.Contains(t, err.Error(), "delete it manually")
}
