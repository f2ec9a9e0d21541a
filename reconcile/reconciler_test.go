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
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/radanalyticsio/sparkimage/catalog"
	"github.com/radanalyticsio/sparkimage/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTarget() catalog.Target {
	return catalog.Target{
		Name:             catalog.RadanalyticsPySpark,
		BuilderImageRef:  "docker.io/radanalyticsio/radanalytics-pyspark-inc:latest",
		CompleteImageRef: "docker.io/radanalyticsio/radanalytics-pyspark:stable",
		ConfigObject:     "oshinko-python-spark-build-dc",
		ConfigKind:       catalog.ConsumerTemplate,
	}
}

func newTestReconciler(client platform.Client) *Reconciler {
	r := NewReconciler(client)
	r.prober.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return r
}

// matchingBuildConfig is the state Reconcile itself would create for
// testTarget with destination tag "complete".
func matchingBuildConfig() *platform.BuildConfig {
	name := string(catalog.RadanalyticsPySpark)
	return &platform.BuildConfig{
		Name:        name,
		Labels:      map[string]string{OwnershipLabel: name},
		SourceType:  platform.SourceBinary,
		SourceImage: "radanalytics-pyspark-inc:latest",
		Destination: name + ":complete",
	}
}

// builderTagPresent wires the fake so the mirrored builder tag resolves,
// which keeps the reconciler from forcing recreation.
func builderTagPresent(fake *platform.FakeClient) {
	fake.GetImageStreamTagFunc = func(ctx context.Context, stream, tag string) (*platform.ImageStreamTag, error) {
		if stream == "radanalytics-pyspark-inc" && tag == "latest" {
			return &platform.ImageStreamTag{Stream: stream, Tag: tag}, nil
		}
		return nil, platform.ErrNotFound
	}
}

func TestLocalBuilderRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		ref        string
		wantLocal  string
		wantStream string
		wantErr    bool
	}{
		{
			name:       "fully qualified with tag",
			ref:        "docker.io/radanalyticsio/radanalytics-pyspark-inc:latest",
			wantLocal:  "radanalytics-pyspark-inc:latest",
			wantStream: "radanalytics-pyspark-inc",
		},
		{
			name:       "untagged reference defaults to latest",
			ref:        "quay.io/radanalyticsio/openshift-spark-inc",
			wantLocal:  "openshift-spark-inc:latest",
			wantStream: "openshift-spark-inc",
		},
		{
			name:       "short reference without registry",
			ref:        "radanalytics-scala-spark-inc:2.3",
			wantLocal:  "radanalytics-scala-spark-inc:2.3",
			wantStream: "radanalytics-scala-spark-inc",
		},
		{
			name:    "unparseable reference",
			ref:     "not a reference",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			local, stream, err := LocalBuilderRef(tc.ref)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantLocal, local)
			assert.Equal(t, tc.wantStream, stream)
		})
	}
}

func TestReconcileCreatesWhenAbsent(t *testing.T) {
	t.Parallel()

	var created platform.BinaryBuildConfigSpec
	fake := &platform.FakeClient{
		CreateBinaryBuildConfigFunc: func(ctx context.Context, spec platform.BinaryBuildConfigSpec) error {
			created = spec
			return nil
		},
	}
	builderTagPresent(fake)

	r := newTestReconciler(fake)
	result, err := r.Reconcile(context.Background(), testTarget(), "complete")

	require.NoError(t, err)
	assert.Equal(t, ResultCreated, result)
	assert.Equal(t, "radanalytics-pyspark", created.Name)
	assert.Equal(t, "docker.io/radanalyticsio/radanalytics-pyspark-inc:latest", created.BuilderImage)
	assert.Equal(t, "radanalytics-pyspark:complete", created.Destination)
	assert.Equal(t, "radanalytics-pyspark", created.Labels[OwnershipLabel])
	assert.Zero(t, fake.CallCount("delete-buildconfig"))
	assert.Zero(t, fake.CallCount("delete-imagestream "))
}

func TestReconcileUnchangedWhenMatching(t *testing.T) {
	t.Parallel()

	fake := &platform.FakeClient{
		GetBuildConfigFunc: func(ctx context.Context, name string) (*platform.BuildConfig, error) {
			return matchingBuildConfig(), nil
		},
	}
	builderTagPresent(fake)

	r := newTestReconciler(fake)

	// Running twice is the idempotence contract: neither run may issue a
	// create or a delete.
	for i := 0; i < 2; i++ {
		result, err := r.Reconcile(context.Background(), testTarget(), "complete")
		require.NoError(t, err)
		assert.Equal(t, ResultUnchanged, result)
	}
	assert.Zero(t, fake.CallCount("create-buildconfig"))
	assert.Zero(t, fake.CallCount("delete-buildconfig"))
	assert.Zero(t, fake.CallCount("delete-imagestreamtag"))
}

func TestReconcileRecreatesOnMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(bc *platform.BuildConfig)
	}{
		{
			name:   "destination tag differs",
			mutate: func(bc *platform.BuildConfig) { bc.Destination = bc.Name + ":old" },
		},
		{
			name:   "source image differs",
			mutate: func(bc *platform.BuildConfig) { bc.SourceImage = "radanalytics-pyspark-inc:2.2" },
		},
		{
			name:   "source type is not binary",
			mutate: func(bc *platform.BuildConfig) { bc.SourceType = platform.SourceGit },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bc := matchingBuildConfig()
			tc.mutate(bc)

			fake := &platform.FakeClient{
				GetBuildConfigFunc: func(ctx context.Context, name string) (*platform.BuildConfig, error) {
					return bc, nil
				},
			}
			builderTagPresent(fake)

			r := newTestReconciler(fake)
			result, err := r.Reconcile(context.Background(), testTarget(), "complete")

			require.NoError(t, err)
			assert.Equal(t, ResultRecreated, result)
			assert.Equal(t, 1, fake.CallCount("delete-buildconfig"))
			assert.Equal(t, 1, fake.CallCount("create-buildconfig"))
		})
	}
}

func TestReconcileRefusesUnownedResource(t *testing.T) {
	t.Parallel()

	bc := matchingBuildConfig()
	bc.Destination = bc.Name + ":old"
	bc.Labels = map[string]string{"app": "somebody-else"}

	fake := &platform.FakeClient{
		GetBuildConfigFunc: func(ctx context.Context, name string) (*platform.BuildConfig, error) {
			return bc, nil
		},
	}
	builderTagPresent(fake)

	r := newTestReconciler(fake)
	_, err := r.Reconcile(context.Background(), testTarget(), "complete")

	require.Error(t, err)
	var ownErr *OwnershipError
	require.ErrorAs(t, err, &ownErr)
	assert.Equal(t, "radanalytics-pyspark", ownErr.Name)
	assert.Zero(t, fake.CallCount("delete-buildconfig"))
	assert.Zero(t, fake.CallCount("create-buildconfig"))
}

func TestReconcileMissingBuilderTagForcesRecreate(t *testing.T) {
	t.Parallel()

	// The build config is otherwise a perfect match, but the mirrored
	// builder tag is gone so the stream and config must be rebuilt.
	fake := &platform.FakeClient{
		GetBuildConfigFunc: func(ctx context.Context, name string) (*platform.BuildConfig, error) {
			return matchingBuildConfig(), nil
		},
	}

	r := newTestReconciler(fake)
	result, err := r.Reconcile(context.Background(), testTarget(), "complete")

	require.NoError(t, err)
	assert.Equal(t, ResultRecreated, result)
	assert.Equal(t, 1, fake.CallCount("delete-imagestream radanalytics-pyspark-inc"))
	assert.Equal(t, 1, fake.CallCount("delete-buildconfig"))
	assert.Equal(t, 1, fake.CallCount("create-buildconfig"))
}

func TestReconcileClearsDanglingDestinationTag(t *testing.T) {
	t.Parallel()

	// Destination stream enumerates the tag but individual lookup fails,
	// so the dangling tag must be deleted before creation.
	fake := &platform.FakeClient{
		GetImageStreamFunc: func(ctx context.Context, name string) (*platform.ImageStream, error) {
			if name == "radanalytics-pyspark" {
				return &platform.ImageStream{Name: name, Tags: []string{"complete"}}, nil
			}
			return nil, platform.ErrNotFound
		},
	}
	builderTagPresent(fake)

	r := newTestReconciler(fake)
	result, err := r.Reconcile(context.Background(), testTarget(), "complete")

	require.NoError(t, err)
	assert.Equal(t, ResultCreated, result)
	assert.Equal(t, 1, fake.CallCount("delete-imagestreamtag radanalytics-pyspark:complete"))
	assert.Equal(t, 1, fake.CallCount("create-buildconfig"))
}

func TestReconcileAbortsOnTransportError(t *testing.T) {
	t.Parallel()

	fake := &platform.FakeClient{
		GetBuildConfigFunc: func(ctx context.Context, name string) (*platform.BuildConfig, error) {
			return nil, &platform.TransportError{Op: "get buildconfig", Stderr: "connection refused"}
		},
	}
	builderTagPresent(fake)

	r := newTestReconciler(fake)
	_, err := r.Reconcile(context.Background(), testTarget(), "complete")

	require.Error(t, err)
	assert.True(t, platform.IsTransport(err))
	assert.Zero(t, fake.CallCount("create-buildconfig"))
	assert.Zero(t, fake.CallCount("delete-buildconfig"))
}
