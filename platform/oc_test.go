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

package platform

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRun builds a runFunc that records invocations and replays canned
// responses keyed on the first matching argument substring.
type fakeRun struct {
	invocations [][]string
	stdin       []byte
	respond     func(args []string) (stdout, stderr string, err error)
}

func (f *fakeRun) run(ctx context.Context, stdin []byte, args ...string) ([]byte, []byte, error) {
	f.invocations = append(f.invocations, args)
	if stdin != nil {
		f.stdin = stdin
	}
	stdout, stderr, err := f.respond(args)
	return []byte(stdout), []byte(stderr), err
}

func newTestClient(project string, respond func(args []string) (string, string, error)) (*OCClient, *fakeRun) {
	fr := &fakeRun{respond: respond}
	c := NewOCClient("oc", project)
	c.run = fr.run
	return c, fr
}

var errExit = errors.New("exit status 1")

func TestGetBuildConfig(t *testing.T) {
	t.Parallel()

	const payload = `{
		"metadata": {
			"name": "radanalytics-pyspark",
			"labels": {"radanalytics.io/sparkimage": "radanalytics-pyspark"}
		},
		"spec": {
			"source": {"type": "Binary"},
			"strategy": {"sourceStrategy": {"from": {"kind": "ImageStreamTag", "name": "radanalytics-pyspark-inc:latest"}}},
			"output": {"to": {"name": "radanalytics-pyspark:complete"}}
		},
		"status": {"lastVersion": 3}
	}`

	c, fr := newTestClient("spark-builds", func(args []string) (string, string, error) {
		return payload, "", nil
	})

	bc, err := c.GetBuildConfig(context.Background(), "radanalytics-pyspark")
	require.NoError(t, err)

	assert.Equal(t, "radanalytics-pyspark", bc.Name)
	assert.Equal(t, SourceBinary, bc.SourceType)
	assert.Equal(t, "radanalytics-pyspark-inc:latest", bc.SourceImage)
	assert.Equal(t, "radanalytics-pyspark:complete", bc.Destination)
	assert.EqualValues(t, 3, bc.LastVersion)
	assert.Equal(t, "radanalytics-pyspark", bc.Labels["radanalytics.io/sparkimage"])

	// Project selector is appended.
	require.Len(t, fr.invocations, 1)
	assert.Contains(t, strings.Join(fr.invocations[0], " "), "-n spark-builds")
}

func TestGetBuildConfig_NotFoundVsTransport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		stderr    string
		wantOK    func(error) bool
		wantLabel string
	}{
		{
			name:      "server not found",
			stderr:    `Error from server (NotFound): buildconfigs.build.openshift.io "x" not found`,
			wantOK:    IsNotFound,
			wantLabel: "not found",
		},
		{
			name:      "connection refused",
			stderr:    "The connection to the server 10.0.0.1:8443 was refused",
			wantOK:    IsTransport,
			wantLabel: "transport",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newTestClient("", func(args []string) (string, string, error) {
				return "", tt.stderr, errExit
			})
			_, err := c.GetBuildConfig(context.Background(), "x")
			require.Error(t, err)
			assert.True(t, tt.wantOK(err), "expected %s error, got: %v", tt.wantLabel, err)
		})
	}
}

func TestWhoAmI(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient("", func(args []string) (string, string, error) {
		return "developer\n", "", nil
	})
	user, err := c.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "developer", user)

	c, _ = newTestClient("", func(args []string) (string, string, error) {
		return "", "error: You must be logged in to the server", errExit
	})
	_, err = c.WhoAmI(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCreateBinaryBuildConfigArgs(t *testing.T) {
	t.Parallel()

	c, fr := newTestClient("", func(args []string) (string, string, error) {
		return "", "", nil
	})

	err := c.CreateBinaryBuildConfig(context.Background(), BinaryBuildConfigSpec{
		Name:         "openshift-spark",
		BuilderImage: "docker.io/radanalyticsio/openshift-spark-inc:latest",
		Destination:  "openshift-spark:complete",
		Labels:       map[string]string{"radanalytics.io/sparkimage": "openshift-spark"},
	})
	require.NoError(t, err)

	require.Len(t, fr.invocations, 1)
	joined := strings.Join(fr.invocations[0], " ")
	assert.Contains(t, joined, "new-build docker.io/radanalyticsio/openshift-spark-inc:latest")
	assert.Contains(t, joined, "--binary=true")
	assert.Contains(t, joined, "--to=openshift-spark:complete")
	assert.Contains(t, joined, "--labels=radanalytics.io/sparkimage=openshift-spark")
}

func TestGetImageStreamTags(t *testing.T) {
	t.Parallel()

	const payload = `{
		"metadata": {"name": "openshift-spark"},
		"status": {"tags": [{"tag": "complete"}, {"tag": "2.3-latest"}]}
	}`

	c, _ := newTestClient("", func(args []string) (string, string, error) {
		return payload, "", nil
	})

	stream, err := c.GetImageStream(context.Background(), "openshift-spark")
	require.NoError(t, err)
	assert.True(t, stream.HasTag("complete"))
	assert.True(t, stream.HasTag("2.3-latest"))
	assert.False(t, stream.HasTag("stable"))
}

func TestStartBinaryBuild(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     StartBuildOptions
		wantFrom string
	}{
		{
			name:     "from file",
			opts:     StartBuildOptions{Name: "x", FromPath: "/tmp/spark.tgz"},
			wantFrom: "--from-file=/tmp/spark.tgz",
		},
		{
			name:     "from dir",
			opts:     StartBuildOptions{Name: "x", FromPath: "/tmp/spark", FromDir: true},
			wantFrom: "--from-dir=/tmp/spark",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, fr := newTestClient("", func(args []string) (string, string, error) {
				return "build started", "", nil
			})
			require.NoError(t, c.StartBinaryBuild(context.Background(), tt.opts))
			joined := strings.Join(fr.invocations[0], " ")
			assert.Contains(t, joined, tt.wantFrom)
			assert.Contains(t, joined, "--wait")
		})
	}
}

func TestStartBinaryBuild_FailureIsNotTransport(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient("", func(args []string) (string, string, error) {
		return "", "error: the build radanalytics-pyspark-4 status is \"Failed\"", errExit
	})

	err := c.StartBinaryBuild(context.Background(), StartBuildOptions{Name: "radanalytics-pyspark", FromPath: "/tmp/x"})
	require.Error(t, err)
	assert.False(t, IsTransport(err))
	assert.False(t, IsNotFound(err))
}

func TestListByLabel(t *testing.T) {
	t.Parallel()

	const payload = `{
		"items": [
			{"metadata": {"name": "radanalytics-pyspark"}},
			{"metadata": {"name": "openshift-spark"}}
		]
	}`

	c, _ := newTestClient("", func(args []string) (string, string, error) {
		return payload, "", nil
	})

	resources, err := c.ListByLabel(context.Background(), "buildconfigs", "radanalytics.io/sparkimage")
	require.NoError(t, err)
	require.Len(t, resources, 2)
	assert.Equal(t, Resource{Kind: "buildconfigs", Name: "radanalytics-pyspark"}, resources[0])
}

func TestDeleteByLabelTreatsNotFoundAsSatisfied(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient("", func(args []string) (string, string, error) {
		return "", `Error from server (NotFound): buildconfigs "x" not found`, errExit
	})

	assert.NoError(t, c.DeleteByLabel(context.Background(), "buildconfigs", "radanalytics.io/sparkimage=x"))
}

func TestPatchConfigMapKey(t *testing.T) {
	t.Parallel()

	c, fr := newTestClient("", func(args []string) (string, string, error) {
		return "", "", nil
	})

	err := c.PatchConfigMapKey(context.Background(), "oshinko-cluster-config", "sparkimage", "openshift-spark:2.3-latest")
	require.NoError(t, err)

	joined := strings.Join(fr.invocations[0], " ")
	assert.Contains(t, joined, `{"data":{"sparkimage":"openshift-spark:2.3-latest"}}`)
}

func TestPatchTemplateImage(t *testing.T) {
	t.Parallel()

	const tmpl = `{
		"kind": "Template",
		"metadata": {"name": "oshinko-python-spark-build-dc"},
		"objects": [
			{
				"kind": "BuildConfig",
				"spec": {
					"strategy": {"sourceStrategy": {"from": {"kind": "ImageStreamTag", "name": "radanalytics-pyspark:stable"}}}
				}
			},
			{
				"kind": "DeploymentConfig",
				"spec": {"template": {"spec": {"containers": [{"name": "worker", "image": "radanalytics-pyspark:stable"}]}}}
			}
		]
	}`

	c, fr := newTestClient("", func(args []string) (string, string, error) {
		if args[0] == "get" {
			return tmpl, "", nil
		}
		return "", "", nil
	})

	err := c.PatchTemplateImage(context.Background(), "oshinko-python-spark-build-dc", "radanalytics-pyspark", "radanalytics-pyspark:complete")
	require.NoError(t, err)

	// Second invocation replaces the rewritten template via stdin.
	require.Len(t, fr.invocations, 2)
	assert.Equal(t, "replace", fr.invocations[1][0])

	var replaced map[string]interface{}
	require.NoError(t, json.Unmarshal(fr.stdin, &replaced))
	encoded, err := json.Marshal(replaced)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), "radanalytics-pyspark:complete")
	assert.NotContains(t, string(encoded), "radanalytics-pyspark:stable")
}

func TestPatchTemplateImage_NoReference(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient("", func(args []string) (string, string, error) {
		return `{"kind": "Template", "objects": []}`, "", nil
	})

	err := c.PatchTemplateImage(context.Background(), "empty", "radanalytics-pyspark", "radanalytics-pyspark:complete")
	assert.Error(t, err)
}

func TestRewriteImageRefs_DoesNotTouchOtherStreams(t *testing.T) {
	t.Parallel()

	node := map[string]interface{}{
		"image": "openshift-spark-py36:stable",
	}
	assert.False(t, rewriteImageRefs(node, "openshift-spark", "openshift-spark:new"))
	assert.Equal(t, "openshift-spark-py36:stable", node["image"])
}
