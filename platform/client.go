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

// Package platform provides a capability interface over the OpenShift object
// store as exposed by the oc command-line client. Absent resources are a
// normal outcome (ErrNotFound); anything else that goes wrong with a call is
// a TransportError and aborts the run.
package platform

import "context"

// SourceType is a build configuration's source strategy type.
type SourceType string

// Source types this tool cares about. Configurations it creates are always
// Binary; anything else is a state mismatch.
const (
	SourceBinary SourceType = "Binary"
	SourceGit    SourceType = "Git"
	SourceNone   SourceType = "None"
)

// BuildPhase is the lifecycle phase of a build.
type BuildPhase string

// Build phases as reported by the platform, plus PhaseStarting, a local
// sentinel meaning the configuration has never run (sequence number 0).
const (
	PhaseNew       BuildPhase = "New"
	PhasePending   BuildPhase = "Pending"
	PhaseRunning   BuildPhase = "Running"
	PhaseComplete  BuildPhase = "Complete"
	PhaseFailed    BuildPhase = "Failed"
	PhaseError     BuildPhase = "Error"
	PhaseCancelled BuildPhase = "Cancelled"
	PhaseStarting  BuildPhase = "starting"
)

// Active reports whether the phase means a build is underway and a new one
// must not be started.
func (p BuildPhase) Active() bool {
	return p == PhasePending || p == PhaseRunning
}

// BuildConfig is the comparable view of a remote build configuration.
type BuildConfig struct {
	Name   string
	Labels map[string]string

	// SourceType is the build source strategy type.
	SourceType SourceType

	// SourceImage is the image the source strategy builds from, e.g.
	// "radanalytics-pyspark-inc:latest".
	SourceImage string

	// Destination is the output image stream tag, e.g.
	// "radanalytics-pyspark:complete".
	Destination string

	// LastVersion is the sequence number of the most recently started
	// build; 0 means the configuration has never run.
	LastVersion int64
}

// ImageStream is the comparable view of a remote image stream.
type ImageStream struct {
	Name   string
	Labels map[string]string

	// Tags are the tag names enumerable from the stream's status. A tag
	// listed here that fails individual lookup is dangling.
	Tags []string
}

// HasTag reports whether the stream enumerates the given tag.
func (s *ImageStream) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ImageStreamTag is the comparable view of one tag on an image stream.
type ImageStreamTag struct {
	Stream string
	Tag    string

	// DockerImageReference is the fully qualified pull spec the tag
	// resolves to.
	DockerImageReference string
}

// Build is one execution of a build configuration.
type Build struct {
	Name  string
	Phase BuildPhase
}

// Resource identifies one platform object in list output.
type Resource struct {
	Kind string
	Name string
}

// BinaryBuildConfigSpec declares a new build configuration with a binary
// source strategy.
type BinaryBuildConfigSpec struct {
	// Name is the build configuration (and output stream) name.
	Name string

	// BuilderImage is the fully qualified builder image reference; the
	// platform mirrors it into a local stream without the registry prefix.
	BuilderImage string

	// Destination is the output image stream tag, "name:tag".
	Destination string

	// Labels are applied to the configuration and everything it creates.
	Labels map[string]string
}

// StartBuildOptions controls a binary build trigger.
type StartBuildOptions struct {
	// Name is the build configuration to start.
	Name string

	// FromPath is the local artifact; FromDir says whether it is a
	// directory (uploaded as a tree) or a single file.
	FromPath string
	FromDir  bool
}

// Client is the set of platform capabilities this tool consumes. The
// production implementation drives the oc binary; tests inject a fake.
type Client interface {
	// WhoAmI returns the logged-in user, or an error when there is no
	// usable login session.
	WhoAmI(ctx context.Context) (string, error)

	GetBuildConfig(ctx context.Context, name string) (*BuildConfig, error)
	DeleteBuildConfig(ctx context.Context, name string) error
	CreateBinaryBuildConfig(ctx context.Context, spec BinaryBuildConfigSpec) error

	GetImageStream(ctx context.Context, name string) (*ImageStream, error)
	DeleteImageStream(ctx context.Context, name string) error
	GetImageStreamTag(ctx context.Context, stream, tag string) (*ImageStreamTag, error)
	DeleteImageStreamTag(ctx context.Context, stream, tag string) error

	// TagImage imports an external image reference into a local stream
	// tag ("stream:tag").
	TagImage(ctx context.Context, sourceRef, dest string) error

	// Label applies key=value to the named object, overwriting any
	// existing value.
	Label(ctx context.Context, kind, name, key, value string) error

	// EnableImageLookup turns on local image reference resolution for the
	// stream, so bare "stream:tag" references resolve inside the project.
	EnableImageLookup(ctx context.Context, stream string) error

	GetBuild(ctx context.Context, name string) (*Build, error)

	// StartBinaryBuild triggers a build and blocks until it reaches a
	// terminal phase. A build that completes unsuccessfully is an error.
	StartBinaryBuild(ctx context.Context, opts StartBuildOptions) error

	BuildLogs(ctx context.Context, buildName string) (string, error)

	ListByLabel(ctx context.Context, kind, selector string) ([]Resource, error)
	DeleteByLabel(ctx context.Context, kind, selector string) error

	// PatchConfigMapKey rewrites a single data key in a config map.
	PatchConfigMapKey(ctx context.Context, name, key, value string) error

	// PatchTemplateImage rewrites every container image or build source
	// in the template that references the given stream to the new image.
	PatchTemplateImage(ctx context.Context, name, stream, image string) error
}
