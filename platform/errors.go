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
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the requested resource does not exist. Lookups treat
// this as a normal outcome, never as a reason to abort a run.
var ErrNotFound = errors.New("resource not found")

// ErrNotLoggedIn indicates there is no usable login session. Fatal to the
// whole invocation.
var ErrNotLoggedIn = errors.New("not logged in to the platform")

// TransportError is any client call failure that is not a simple absence:
// connection problems, auth failures, malformed responses. It aborts the
// whole run rather than a single target.
type TransportError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("platform call %q failed: %v: %s", e.Op, e.Err, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("platform call %q failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports whether err is a transport-class failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// classify converts an oc invocation failure into the package taxonomy. The
// client conflates "absent" and "call failed" in its exit codes, so absence
// is recognized from the server error text.
func classify(op, stderr string, err error) error {
	if err == nil {
		return nil
	}

	if strings.Contains(stderr, "(NotFound)") || strings.Contains(stderr, "not found") {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if strings.Contains(stderr, "(AlreadyExists)") || strings.Contains(stderr, "already exists") {
		return fmt.Errorf("%s: %s: %w", op, strings.TrimSpace(stderr), err)
	}
	if strings.Contains(stderr, "You must be logged in") || strings.Contains(stderr, "Unauthorized") {
		return fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
	}

	return &TransportError{Op: op, Stderr: stderr, Err: err}
}
