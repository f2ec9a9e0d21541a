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

// Package artifact turns the SPARK build-input argument into a verified local
// path. The argument may be a file, a directory, or an http(s) URL that gets
// downloaded into the cache directory. When a checksum sidecar exists next to
// the artifact it is verified before anything is built.
package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/radanalyticsio/sparkimage/errors"
	"github.com/radanalyticsio/sparkimage/logging"
)

// Artifact is a resolved, locally available build input.
type Artifact struct {
	// Path is the local filesystem location.
	Path string
	// Dir marks the artifact as a directory build context.
	Dir bool
}

// sidecar suffixes in probe order, strongest first.
var sidecarAlgorithms = []struct {
	suffix string
	algo   digest.Algorithm
}{
	{".sha512", digest.SHA512},
	{".sha256", digest.SHA256},
}

// Resolver locates, downloads, and verifies build inputs.
type Resolver struct {
	cacheDir   string
	httpClient *http.Client
}

// NewResolver creates a resolver that downloads remote artifacts into
// cacheDir.
func NewResolver(cacheDir string) *Resolver {
	return &Resolver{cacheDir: cacheDir, httpClient: http.DefaultClient}
}

// Resolve converts the SPARK argument into a local artifact. URLs are
// downloaded to the cache, files are verified against a checksum sidecar if
// one exists, directories are passed through as-is.
func (r *Resolver) Resolve(ctx context.Context, spark string) (*Artifact, error) {
	if isURL(spark) {
		return r.resolveURL(ctx, spark)
	}

	info, err := os.Stat(spark)
	if err != nil {
		return nil, errors.Wrap("locate build input", spark, err)
	}
	if info.IsDir() {
		return &Artifact{Path: spark, Dir: true}, nil
	}

	if err := r.verifyLocalSidecar(spark); err != nil {
		return nil, err
	}
	return &Artifact{Path: spark}, nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// resolveURL downloads the artifact and, when available, its checksum
// sidecar. A missing sidecar is fine; a present-but-mismatching one is fatal.
func (r *Resolver) resolveURL(ctx context.Context, rawURL string) (*Artifact, error) {
	name := path.Base(rawURL)
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("cannot derive a file name from URL %q", rawURL)
	}

	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return nil, errors.Wrap("create artifact cache", r.cacheDir, err)
	}

	dest := filepath.Join(r.cacheDir, name)
	if err := r.download(ctx, rawURL, dest); err != nil {
		return nil, err
	}
	logging.InfoContext(ctx, "downloaded %s to %s", rawURL, dest)

	for _, sc := range sidecarAlgorithms {
		expected, err := r.fetchSidecar(ctx, rawURL+sc.suffix)
		if err != nil {
			return nil, err
		}
		if expected == "" {
			continue
		}
		if err := verifyFile(dest, sc.algo, expected); err != nil {
			return nil, err
		}
		logging.DebugContext(ctx, "verified %s checksum for %s", sc.algo, dest)
		break
	}

	return &Artifact{Path: dest}, nil
}

func (r *Resolver) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap("build download request", rawURL, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return errors.Wrap("download build input", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s failed with status %s", rawURL, resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return errors.Wrap("create artifact file", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return errors.Wrap("write artifact file", dest, err)
	}
	return nil
}

// fetchSidecar returns the checksum published at the sidecar URL, or empty
// when the server has none.
func (r *Resolver) fetchSidecar(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", errors.Wrap("build sidecar request", rawURL, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap("fetch checksum sidecar", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sidecar fetch %s failed with status %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", errors.Wrap("read checksum sidecar", rawURL, err)
	}
	return parseSidecar(string(body)), nil
}

// verifyLocalSidecar checks the artifact against the first checksum sidecar
// found next to it on disk. No sidecar means no verification.
func (r *Resolver) verifyLocalSidecar(artifactPath string) error {
	for _, sc := range sidecarAlgorithms {
		body, err := os.ReadFile(artifactPath + sc.suffix)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return errors.Wrap("read checksum sidecar", artifactPath+sc.suffix, err)
		}

		expected := parseSidecar(string(body))
		if expected == "" {
			return fmt.Errorf("checksum sidecar %s is empty", artifactPath+sc.suffix)
		}
		return verifyFile(artifactPath, sc.algo, expected)
	}
	return nil
}

// parseSidecar extracts the hex digest from coreutils-style sidecar content
// ("<hex>  <filename>") or a bare digest line.
func parseSidecar(content string) string {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func verifyFile(path string, algo digest.Algorithm, expectedHex string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap("open artifact for verification", path, err)
	}
	defer f.Close()

	actual, err := algo.FromReader(f)
	if err != nil {
		return errors.Wrap("compute artifact checksum", path, err)
	}

	expected := digest.NewDigestFromEncoded(algo, expectedHex)
	if err := expected.Validate(); err != nil {
		return errors.Wrap("parse checksum sidecar value", expectedHex, err)
	}
	if actual != expected {
		return fmt.Errorf("checksum mismatch for %s: sidecar has %s, file is %s", path, expected, actual)
	}
	return nil
}
