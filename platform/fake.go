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

import "context"

// FakeClient is a func-field test double for Client. Unset methods return
// ErrNotFound for lookups and nil for mutations, so tests only wire the calls
// they care about. Every invocation is appended to Calls for assertions on
// what was (or was not) touched.
type FakeClient struct {
	Calls []string

	WhoAmIFunc                  func(ctx context.Context) (string, error)
	GetBuildConfigFunc          func(ctx context.Context, name string) (*BuildConfig, error)
	DeleteBuildConfigFunc       func(ctx context.Context, name string) error
	CreateBinaryBuildConfigFunc func(ctx context.Context, spec BinaryBuildConfigSpec) error
	GetImageStreamFunc          func(ctx context.Context, name string) (*ImageStream, error)
	DeleteImageStreamFunc       func(ctx context.Context, name string) error
	GetImageStreamTagFunc       func(ctx context.Context, stream, tag string) (*ImageStreamTag, error)
	DeleteImageStreamTagFunc    func(ctx context.Context, stream, tag string) error
	TagImageFunc                func(ctx context.Context, sourceRef, dest string) error
	LabelFunc                   func(ctx context.Context, kind, name, key, value string) error
	EnableImageLookupFunc       func(ctx context.Context, stream string) error
	GetBuildFunc                func(ctx context.Context, name string) (*Build, error)
	StartBinaryBuildFunc        func(ctx context.Context, opts StartBuildOptions) error
	BuildLogsFunc               func(ctx context.Context, buildName string) (string, error)
	ListByLabelFunc             func(ctx context.Context, kind, selector string) ([]Resource, error)
	DeleteByLabelFunc           func(ctx context.Context, kind, selector string) error
	PatchConfigMapKeyFunc       func(ctx context.Context, name, key, value string) error
	PatchTemplateImageFunc      func(ctx context.Context, name, stream, image string) error
}

// Compile-time check that FakeClient implements Client.
var _ Client = (*FakeClient)(nil)

func (f *FakeClient) record(call string) {
	f.Calls = append(f.Calls, call)
}

// CallCount returns how many recorded calls start with the given prefix.
func (f *FakeClient) CallCount(prefix string) int {
	n := 0
	for _, c := range f.Calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *FakeClient) WhoAmI(ctx context.Context) (string, error) {
	f.record("whoami")
	if f.WhoAmIFunc != nil {
		return f.WhoAmIFunc(ctx)
	}
	return "developer", nil
}

func (f *FakeClient) GetBuildConfig(ctx context.Context, name string) (*BuildConfig, error) {
	f.record("get-buildconfig " + name)
	if f.GetBuildConfigFunc != nil {
		return f.GetBuildConfigFunc(ctx, name)
	}
	return nil, ErrNotFound
}

func (f *FakeClient) DeleteBuildConfig(ctx context.Context, name string) error {
	f.record("delete-buildconfig " + name)
	if f.DeleteBuildConfigFunc != nil {
		return f.DeleteBuildConfigFunc(ctx, name)
	}
	return nil
}

func (f *FakeClient) CreateBinaryBuildConfig(ctx context.Context, spec BinaryBuildConfigSpec) error {
	f.record("create-buildconfig " + spec.Name)
	if f.CreateBinaryBuildConfigFunc != nil {
		return f.CreateBinaryBuildConfigFunc(ctx, spec)
	}
	return nil
}

func (f *FakeClient) GetImageStream(ctx context.Context, name string) (*ImageStream, error) {
	f.record("get-imagestream " + name)
	if f.GetImageStreamFunc != nil {
		return f.GetImageStreamFunc(ctx, name)
	}
	return nil, ErrNotFound
}

func (f *FakeClient) DeleteImageStream(ctx context.Context, name string) error {
	f.record("delete-imagestream " + name)
	if f.DeleteImageStreamFunc != nil {
		return f.DeleteImageStreamFunc(ctx, name)
	}
	return nil
}

func (f *FakeClient) GetImageStreamTag(ctx context.Context, stream, tag string) (*ImageStreamTag, error) {
	f.record("get-imagestreamtag " + stream + ":" + tag)
	if f.GetImageStreamTagFunc != nil {
		return f.GetImageStreamTagFunc(ctx, stream, tag)
	}
	return nil, ErrNotFound
}

func (f *FakeClient) DeleteImageStreamTag(ctx context.Context, stream, tag string) error {
	f.record("delete-imagestreamtag " + stream + ":" + tag)
	if f.DeleteImageStreamTagFunc != nil {
		return f.DeleteImageStreamTagFunc(ctx, stream, tag)
	}
	return nil
}

func (f *FakeClient) TagImage(ctx context.Context, sourceRef, dest string) error {
	f.record("tag " + sourceRef + " " + dest)
	if f.TagImageFunc != nil {
		return f.TagImageFunc(ctx, sourceRef, dest)
	}
	return nil
}

func (f *FakeClient) Label(ctx context.Context, kind, name, key, value string) error {
	f.record("label " + kind + " " + name)
	if f.LabelFunc != nil {
		return f.LabelFunc(ctx, kind, name, key, value)
	}
	return nil
}

func (f *FakeClient) EnableImageLookup(ctx context.Context, stream string) error {
	f.record("image-lookup " + stream)
	if f.EnableImageLookupFunc != nil {
		return f.EnableImageLookupFunc(ctx, stream)
	}
	return nil
}

func (f *FakeClient) GetBuild(ctx context.Context, name string) (*Build, error) {
	f.record("get-build " + name)
	if f.GetBuildFunc != nil {
		return f.GetBuildFunc(ctx, name)
	}
	return nil, ErrNotFound
}

func (f *FakeClient) StartBinaryBuild(ctx context.Context, opts StartBuildOptions) error {
	f.record("start-build " + opts.Name)
	if f.StartBinaryBuildFunc != nil {
		return f.StartBinaryBuildFunc(ctx, opts)
	}
	return nil
}

func (f *FakeClient) BuildLogs(ctx context.Context, buildName string) (string, error) {
	f.record("logs " + buildName)
	if f.BuildLogsFunc != nil {
		return f.BuildLogsFunc(ctx, buildName)
	}
	return "", nil
}

func (f *FakeClient) ListByLabel(ctx context.Context, kind, selector string) ([]Resource, error) {
	f.record("list " + kind + " " + selector)
	if f.ListByLabelFunc != nil {
		return f.ListByLabelFunc(ctx, kind, selector)
	}
	return nil, nil
}

func (f *FakeClient) DeleteByLabel(ctx context.Context, kind, selector string) error {
	f.record("delete-by-label " + kind + " " + selector)
	if f.DeleteByLabelFunc != nil {
		return f.DeleteByLabelFunc(ctx, kind, selector)
	}
	return nil
}

func (f *FakeClient) PatchConfigMapKey(ctx context.Context, name, key, value string) error {
	f.record("patch-configmap " + name)
	if f.PatchConfigMapKeyFunc != nil {
		return f.PatchConfigMapKeyFunc(ctx, name, key, value)
	}
	return nil
}

func (f *FakeClient) PatchTemplateImage(ctx context.Context, name, stream, image string) error {
	f.record("patch-template " + name)
	if f.PatchTemplateImageFunc != nil {
		return f.PatchTemplateImageFunc(ctx, name, stream, image)
	}
	return nil
}
