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

// Package errors annotates failures with the action that was being attempted
// and the resource it was attempted on, so that errors surfaced to the CLI
// read as "failed to delete build config (radanalytics-pyspark): ...".
package errors

import "fmt"

// Wrap annotates err with the attempted action and an optional detail,
// usually the name of the resource involved. The original error remains
// reachable through errors.Is and errors.As. A nil err passes through
// unchanged, so calls can wrap unconditionally:
//
//	return errors.Wrap("create build config", name, client.CreateBinaryBuildConfig(ctx, spec))
func Wrap(action, detail string, err error) error {
	if err == nil {
		return nil
	}
	if detail == "" {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return fmt.Errorf("failed to %s (%s): %w", action, detail, err)
}

// Wrapf is Wrap with a formatted detail, for resources whose identity spans
// several values, such as an image stream tag:
//
//	return errors.Wrapf("delete image stream tag", err, "%s:%s", stream, tag)
func Wrapf(action string, err error, detailFormat string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(action, fmt.Sprintf(detailFormat, args...), err)
}
