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
	"context"
	"errors"
	"testing"

	"github.com/radanalyticsio/sparkimage/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequencedFake wires a FakeClient so the build configuration's lastVersion
// advances from pre to post across the start-build call, mirroring what the
// platform does when a build is triggered.
func sequencedFake(pre, post int64, phase platform.BuildPhase) *platform.FakeClient {
	started := false
	fake := &platform.FakeClient{}
	fake.GetBuildConfigFunc = func(ctx context.Context, name string) (*platform.BuildConfig, error) {
		version := pre
		if started {
			version = post
		}
		return &platform.BuildConfig{Name: name, LastVersion: version}, nil
	}
	fake.StartBinaryBuildFunc = func(ctx context.Context, opts platform.StartBuildOptions) error {
		started = true
		return nil
	}
	fake.GetBuildFunc = func(ctx context.Context, name string) (*platform.Build, error) {
		return &platform.Build{Name: name, Phase: phase}, nil
	}
	fake.BuildLogsFunc = func(ctx context.Context, buildName string) (string, error) {
		return "log output for " + buildName, nil
	}
	return fake
}

func TestDriverRunFirstBuild(t *testing.T) {
	t.Parallel()

	fake := sequencedFake(0, 1, platform.PhaseComplete)
	d := NewDriver(fake, false)

	result, err := d.Run(context.Background(), "radanalytics-pyspark", Source{Path: "/tmp/spark.tgz"})

	require.NoError(t, err)
	assert.True(t, result.Started)
	assert.Equal(t, "radanalytics-pyspark-1", result.BuildName)
	assert.Equal(t, platform.PhaseComplete, result.Phase)
	// Successful non-verbose builds never fetch logs.
	assert.Empty(t, result.Logs)
	assert.Zero(t, fake.CallCount("logs"))
}

func TestDriverRunPassesSourceThrough(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		source  Source
		wantDir bool
	}{
		{
			name:   "file artifact",
			source: Source{Path: "/tmp/spark.tgz"},
		},
		{
			name:    "directory artifact",
			source:  Source{Path: "/tmp/spark-dist", Dir: true},
			wantDir: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fake := sequencedFake(0, 1, platform.PhaseComplete)
			var got platform.StartBuildOptions
			inner := fake.StartBinaryBuildFunc
			fake.StartBinaryBuildFunc = func(ctx context.Context, opts platform.StartBuildOptions) error {
				got = opts
				return inner(ctx, opts)
			}

			d := NewDriver(fake, false)
			_, err := d.Run(context.Background(), "radanalytics-pyspark", tc.source)

			require.NoError(t, err)
			assert.Equal(t, "radanalytics-pyspark", got.Name)
			assert.Equal(t, tc.source.Path, got.FromPath)
			assert.Equal(t, tc.wantDir, got.FromDir)
		})
	}
}

func TestDriverRunRefusesActiveBuild(t *testing.T) {
	t.Parallel()

	for _, phase := range []platform.BuildPhase{platform.PhasePending, platform.PhaseRunning} {
		t.Run(string(phase), func(t *testing.T) {
			t.Parallel()

			fake := sequencedFake(3, 3, phase)
			d := NewDriver(fake, false)

			_, err := d.Run(context.Background(), "radanalytics-pyspark", Source{Path: "/tmp/spark.tgz"})

			require.Error(t, err)
			var inProgress *InProgressError
			require.ErrorAs(t, err, &inProgress)
			assert.Equal(t, "radanalytics-pyspark-3", inProgress.BuildName)
			assert.Contains(t, err.Error(), "already in progress")
			assert.Zero(t, fake.CallCount("start-build"))
		})
	}
}

func TestDriverRunFetchesLogsOnFailure(t *testing.T) {
	t.Parallel()

	fake := sequencedFake(2, 3, platform.PhaseFailed)
	// The previous build is terminal so a new one may start.
	inner := fake.GetBuildFunc
	fake.GetBuildFunc = func(ctx context.Context, name string) (*platform.Build, error) {
		if name == "radanalytics-pyspark-2" {
			return &platform.Build{Name: name, Phase: platform.PhaseComplete}, nil
		}
		return inner(ctx, name)
	}

	d := NewDriver(fake, false)
	result, err := d.Run(context.Background(), "radanalytics-pyspark", Source{Path: "/tmp/spark.tgz"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed")
	require.NotNil(t, result)
	assert.Equal(t, "log output for radanalytics-pyspark-3", result.Logs)
	assert.Equal(t, 1, fake.CallCount("logs"))
}

func TestDriverRunFetchesLogsWhenVerbose(t *testing.T) {
	t.Parallel()

	fake := sequencedFake(0, 1, platform.PhaseComplete)
	d := NewDriver(fake, true)

	result, err := d.Run(context.Background(), "radanalytics-pyspark", Source{Path: "/tmp/spark.tgz"})

	require.NoError(t, err)
	assert.Equal(t, "log output for radanalytics-pyspark-1", result.Logs)
	assert.Equal(t, 1, fake.CallCount("logs"))
}

func TestDriverRunNoLogsWhenSequenceDidNotAdvance(t *testing.T) {
	t.Parallel()

	// Trigger reported failure but the counter never moved, so there is no
	// build to pull logs from even in verbose mode.
	fake := sequencedFake(2, 2, platform.PhaseComplete)
	startErr := errors.New("build radanalytics-pyspark-3 failed to start")
	fake.StartBinaryBuildFunc = func(ctx context.Context, opts platform.StartBuildOptions) error {
		return startErr
	}

	d := NewDriver(fake, true)
	result, err := d.Run(context.Background(), "radanalytics-pyspark", Source{Path: "/tmp/spark.tgz"})

	require.Error(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Started)
	assert.Empty(t, result.Logs)
	assert.Zero(t, fake.CallCount("logs"))
}

func TestDriverRunStartingSentinelAfterClean(t *testing.T) {
	t.Parallel()

	// lastVersion survived a clean but the builds themselves are gone;
	// the sentinel phase lets a new build start.
	fake := sequencedFake(4, 5, platform.PhaseComplete)
	inner := fake.GetBuildFunc
	fake.GetBuildFunc = func(ctx context.Context, name string) (*platform.Build, error) {
		if name == "radanalytics-pyspark-4" {
			return nil, platform.ErrNotFound
		}
		return inner(ctx, name)
	}

	d := NewDriver(fake, false)
	result, err := d.Run(context.Background(), "radanalytics-pyspark", Source{Path: "/tmp/spark.tgz"})

	require.NoError(t, err)
	assert.True(t, result.Started)
	assert.Equal(t, "radanalytics-pyspark-5", result.BuildName)
}

func TestDriverRunAbortsOnTransportError(t *testing.T) {
	t.Parallel()

	fake := sequencedFake(0, 1, platform.PhaseComplete)
	fake.StartBinaryBuildFunc = func(ctx context.Context, opts platform.StartBuildOptions) error {
		return &platform.TransportError{Op: "start build", Stderr: "connection refused"}
	}

	d := NewDriver(fake, false)
	_, err := d.Run(context.Background(), "radanalytics-pyspark", Source{Path: "/tmp/spark.tgz"})

	require.Error(t, err)
	assert.True(t, platform.IsTransport(err))
}

func TestLocalDriverBuild(t *testing.T) {
	t.Parallel()

	t.Run("success invokes s2i with artifact, builder, and tag", func(t *testing.T) {
		t.Parallel()

		var gotBinary string
		var gotArgs []string
		d := NewLocalDriver("s2i")
		d.run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
			gotBinary = binary
			gotArgs = args
			return []byte("Build completed successfully"), nil
		}

		err := d.Build(context.Background(),
			"docker.io/radanalyticsio/radanalytics-pyspark-inc:latest",
			"radanalytics-pyspark:complete",
			Source{Path: "/tmp/spark.tgz"})

		require.NoError(t, err)
		assert.Equal(t, "s2i", gotBinary)
		assert.Equal(t, []string{
			"build",
			"/tmp/spark.tgz",
			"docker.io/radanalyticsio/radanalytics-pyspark-inc:latest",
			"radanalytics-pyspark:complete",
		}, gotArgs)
	})

	t.Run("failure wraps the tool error", func(t *testing.T) {
		t.Parallel()

		d := NewLocalDriver("s2i")
		d.run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
			return []byte("pulling image failed"), errors.New("exit status 1")
		}

		err := d.Build(context.Background(),
			"docker.io/radanalyticsio/radanalytics-pyspark-inc:latest",
			"radanalytics-pyspark:complete",
			Source{Path: "/tmp/spark.tgz"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "radanalytics-pyspark:complete")
	})
}
