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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/radanalyticsio/sparkimage/logging"
)

// runFunc executes one oc invocation and returns captured stdout and stderr.
// Injected in tests to exercise the client without a cluster.
type runFunc func(ctx context.Context, stdin []byte, args ...string) (stdout, stderr []byte, err error)

// OCClient implements Client by driving the oc binary as a subprocess.
type OCClient struct {
	binary  string
	project string
	run     runFunc
}

// Compile-time check that OCClient implements Client.
var _ Client = (*OCClient)(nil)

// NewOCClient creates a client for the given oc binary and project. An empty
// project uses the client's current project.
func NewOCClient(binary, project string) *OCClient {
	c := &OCClient{binary: binary, project: project}
	c.run = c.execRun
	return c
}

// execRun invokes the oc binary with captured output.
func (c *OCClient) execRun(ctx context.Context, stdin []byte, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	logging.DebugContext(ctx, "exec: %s %s", c.binary, strings.Join(args, " "))
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// args prepends the project selector when one is configured.
func (c *OCClient) args(base ...string) []string {
	if c.project == "" {
		return base
	}
	return append(base, "-n", c.project)
}

// call runs oc and classifies any failure.
func (c *OCClient) call(ctx context.Context, op string, stdin []byte, args ...string) ([]byte, error) {
	stdout, stderr, err := c.run(ctx, stdin, args...)
	if err := classify(op, string(stderr), err); err != nil {
		return nil, err
	}
	return stdout, nil
}

// WhoAmI returns the logged-in user.
func (c *OCClient) WhoAmI(ctx context.Context) (string, error) {
	stdout, stderr, err := c.run(ctx, nil, "whoami")
	if err != nil {
		return "", fmt.Errorf("whoami: %s: %w", strings.TrimSpace(string(stderr)), ErrNotLoggedIn)
	}
	return strings.TrimSpace(string(stdout)), nil
}

// Wire shapes for the slices of oc get -o json output this client reads.

type ocMetadata struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
}

type ocBuildConfig struct {
	Metadata ocMetadata `json:"metadata"`
	Spec     struct {
		Source struct {
			Type string `json:"type"`
		} `json:"source"`
		Strategy struct {
			SourceStrategy struct {
				From struct {
					Kind string `json:"kind"`
					Name string `json:"name"`
				} `json:"from"`
			} `json:"sourceStrategy"`
		} `json:"strategy"`
		Output struct {
			To struct {
				Name string `json:"name"`
			} `json:"to"`
		} `json:"output"`
	} `json:"spec"`
	Status struct {
		LastVersion int64 `json:"lastVersion"`
	} `json:"status"`
}

type ocImageStream struct {
	Metadata ocMetadata `json:"metadata"`
	Status   struct {
		Tags []struct {
			Tag string `json:"tag"`
		} `json:"tags"`
	} `json:"status"`
}

type ocImageStreamTag struct {
	Metadata ocMetadata `json:"metadata"`
	Image    struct {
		DockerImageReference string `json:"dockerImageReference"`
	} `json:"image"`
}

type ocBuild struct {
	Metadata ocMetadata `json:"metadata"`
	Status   struct {
		Phase string `json:"phase"`
	} `json:"status"`
}

type ocList struct {
	Items []json.RawMessage `json:"items"`
}

// GetBuildConfig returns the comparable view of a build configuration.
func (c *OCClient) GetBuildConfig(ctx context.Context, name string) (*BuildConfig, error) {
	op := "get buildconfig " + name
	stdout, err := c.call(ctx, op, nil, c.args("get", "buildconfig", name, "-o", "json")...)
	if err != nil {
		return nil, err
	}

	var raw ocBuildConfig
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return &BuildConfig{
		Name:        raw.Metadata.Name,
		Labels:      raw.Metadata.Labels,
		SourceType:  SourceType(raw.Spec.Source.Type),
		SourceImage: raw.Spec.Strategy.SourceStrategy.From.Name,
		Destination: raw.Spec.Output.To.Name,
		LastVersion: raw.Status.LastVersion,
	}, nil
}

// DeleteBuildConfig deletes a build configuration.
func (c *OCClient) DeleteBuildConfig(ctx context.Context, name string) error {
	op := "delete buildconfig " + name
	_, err := c.call(ctx, op, nil, c.args("delete", "buildconfig", name)...)
	return err
}

// CreateBinaryBuildConfig declares a new binary-source build configuration.
func (c *OCClient) CreateBinaryBuildConfig(ctx context.Context, spec BinaryBuildConfigSpec) error {
	op := "new-build " + spec.Name

	args := []string{
		"new-build", spec.BuilderImage,
		"--name=" + spec.Name,
		"--binary=true",
		"--to=" + spec.Destination,
	}
	for k, v := range spec.Labels {
		args = append(args, fmt.Sprintf("--labels=%s=%s", k, v))
	}

	_, err := c.call(ctx, op, nil, c.args(args...)...)
	return err
}

// GetImageStream returns the comparable view of an image stream.
func (c *OCClient) GetImageStream(ctx context.Context, name string) (*ImageStream, error) {
	op := "get imagestream " + name
	stdout, err := c.call(ctx, op, nil, c.args("get", "imagestream", name, "-o", "json")...)
	if err != nil {
		return nil, err
	}

	var raw ocImageStream
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	stream := &ImageStream{Name: raw.Metadata.Name, Labels: raw.Metadata.Labels}
	for _, t := range raw.Status.Tags {
		stream.Tags = append(stream.Tags, t.Tag)
	}
	return stream, nil
}

// DeleteImageStream deletes an image stream.
func (c *OCClient) DeleteImageStream(ctx context.Context, name string) error {
	op := "delete imagestream " + name
	_, err := c.call(ctx, op, nil, c.args("delete", "imagestream", name)...)
	return err
}

// GetImageStreamTag returns one tag of an image stream.
func (c *OCClient) GetImageStreamTag(ctx context.Context, stream, tag string) (*ImageStreamTag, error) {
	ref := stream + ":" + tag
	op := "get imagestreamtag " + ref
	stdout, err := c.call(ctx, op, nil, c.args("get", "imagestreamtag", ref, "-o", "json")...)
	if err != nil {
		return nil, err
	}

	var raw ocImageStreamTag
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return &ImageStreamTag{
		Stream:               stream,
		Tag:                  tag,
		DockerImageReference: raw.Image.DockerImageReference,
	}, nil
}

// DeleteImageStreamTag deletes one tag of an image stream.
func (c *OCClient) DeleteImageStreamTag(ctx context.Context, stream, tag string) error {
	ref := stream + ":" + tag
	op := "delete imagestreamtag " + ref
	_, err := c.call(ctx, op, nil, c.args("delete", "imagestreamtag", ref)...)
	return err
}

// TagImage imports an external image reference into a local stream tag.
func (c *OCClient) TagImage(ctx context.Context, sourceRef, dest string) error {
	op := "tag " + sourceRef + " " + dest
	_, err := c.call(ctx, op, nil, c.args("tag", "--source=docker", sourceRef, dest)...)
	return err
}

// Label applies key=value to the named object, overwriting any existing value.
func (c *OCClient) Label(ctx context.Context, kind, name, key, value string) error {
	op := fmt.Sprintf("label %s %s", kind, name)
	_, err := c.call(ctx, op, nil, c.args("label", kind, name, key+"="+value, "--overwrite")...)
	return err
}

// EnableImageLookup turns on local image reference resolution for the stream.
func (c *OCClient) EnableImageLookup(ctx context.Context, stream string) error {
	op := "set image-lookup " + stream
	_, err := c.call(ctx, op, nil, c.args("set", "image-lookup", stream)...)
	return err
}

// GetBuild returns one build's phase.
func (c *OCClient) GetBuild(ctx context.Context, name string) (*Build, error) {
	op := "get build " + name
	stdout, err := c.call(ctx, op, nil, c.args("get", "build", name, "-o", "json")...)
	if err != nil {
		return nil, err
	}

	var raw ocBuild
	if err := json.Unmarshal(stdout, &raw); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	return &Build{Name: raw.Metadata.Name, Phase: BuildPhase(raw.Status.Phase)}, nil
}

// StartBinaryBuild triggers a build and blocks until it reaches a terminal
// phase. oc start-build --wait exits non-zero when the build does not
// complete successfully.
func (c *OCClient) StartBinaryBuild(ctx context.Context, opts StartBuildOptions) error {
	op := "start-build " + opts.Name

	from := "--from-file=" + opts.FromPath
	if opts.FromDir {
		from = "--from-dir=" + opts.FromPath
	}

	stdout, stderr, err := c.run(ctx, nil, c.args("start-build", opts.Name, from, "--wait")...)
	if err != nil {
		// A failed build is the caller's signal, not a transport
		// problem, unless the server text says otherwise.
		if strings.Contains(string(stderr), "(NotFound)") || strings.Contains(string(stderr), "not found") {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %s: %w", op, strings.TrimSpace(string(stderr)), err)
	}

	logging.DebugContext(ctx, "%s", strings.TrimSpace(string(stdout)))
	return nil
}

// BuildLogs fetches the full log of one build.
func (c *OCClient) BuildLogs(ctx context.Context, buildName string) (string, error) {
	op := "logs build/" + buildName
	stdout, err := c.call(ctx, op, nil, c.args("logs", "build/"+buildName)...)
	if err != nil {
		return "", err
	}
	return string(stdout), nil
}

// ListByLabel enumerates objects of one kind matching a label selector.
func (c *OCClient) ListByLabel(ctx context.Context, kind, selector string) ([]Resource, error) {
	op := fmt.Sprintf("get %s -l %s", kind, selector)
	stdout, err := c.call(ctx, op, nil, c.args("get", kind, "-l", selector, "-o", "json")...)
	if err != nil {
		return nil, err
	}

	var list ocList
	if err := json.Unmarshal(stdout, &list); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}

	resources := make([]Resource, 0, len(list.Items))
	for _, item := range list.Items {
		var meta struct {
			Metadata ocMetadata `json:"metadata"`
		}
		if err := json.Unmarshal(item, &meta); err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("decode item: %w", err)}
		}
		resources = append(resources, Resource{Kind: kind, Name: meta.Metadata.Name})
	}
	return resources, nil
}

// DeleteByLabel deletes every object of one kind matching a label selector.
// Nothing matching is already-satisfied, not an error.
func (c *OCClient) DeleteByLabel(ctx context.Context, kind, selector string) error {
	op := fmt.Sprintf("delete %s -l %s", kind, selector)
	_, err := c.call(ctx, op, nil, c.args("delete", kind, "-l", selector, "--ignore-not-found")...)
	if IsNotFound(err) {
		return nil
	}
	return err
}

// PatchConfigMapKey rewrites a single data key in a config map.
func (c *OCClient) PatchConfigMapKey(ctx context.Context, name, key, value string) error {
	op := "patch configmap " + name

	patch, err := json.Marshal(map[string]map[string]string{"data": {key: value}})
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("encode patch: %w", err)}
	}

	_, err = c.call(ctx, op, nil, c.args("patch", "configmap", name, "-p", string(patch))...)
	return err
}

// PatchTemplateImage rewrites every container image or image stream source in
// the template that references the given stream, then replaces the object.
func (c *OCClient) PatchTemplateImage(ctx context.Context, name, stream, image string) error {
	op := "patch template " + name

	stdout, err := c.call(ctx, op, nil, c.args("get", "template", name, "-o", "json")...)
	if err != nil {
		return err
	}

	var tmpl map[string]interface{}
	if err := json.Unmarshal(stdout, &tmpl); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode template: %w", err)}
	}

	if !rewriteImageRefs(tmpl, stream, image) {
		return fmt.Errorf("%s: no object in template references stream %q", op, stream)
	}

	replacement, err := json.Marshal(tmpl)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("encode template: %w", err)}
	}

	_, err = c.call(ctx, op, replacement, c.args("replace", "-f", "-")...)
	return err
}

// rewriteImageRefs walks decoded JSON and rewrites image references to the
// given stream: container "image" fields and ImageStreamTag "from" objects.
// Returns whether anything changed.
func rewriteImageRefs(node interface{}, stream, image string) bool {
	changed := false

	switch v := node.(type) {
	case map[string]interface{}:
		if s, ok := v["image"].(string); ok && refersToStream(s, stream) {
			v["image"] = image
			changed = true
		}
		if kind, ok := v["kind"].(string); ok && kind == "ImageStreamTag" {
			if s, ok := v["name"].(string); ok && refersToStream(s, stream) {
				v["name"] = image
				changed = true
			}
		}
		for _, child := range v {
			if rewriteImageRefs(child, stream, image) {
				changed = true
			}
		}
	case []interface{}:
		for _, child := range v {
			if rewriteImageRefs(child, stream, image) {
				changed = true
			}
		}
	}

	return changed
}

// refersToStream reports whether an image reference names the given stream,
// with or without a tag.
func refersToStream(ref, stream string) bool {
	return ref == stream || strings.HasPrefix(ref, stream+":")
}
