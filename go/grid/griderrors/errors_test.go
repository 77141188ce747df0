/*
Copyright 2026 The GridSQL Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package griderrors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCodeAndChain(t *testing.T) {
	base := New(FeatureNotSupported, "no can do")
	wrapped := Wrapf(base, "planning level %d", 2)

	assert.Equal(t, "planning level 2: no can do", wrapped.Error())
	assert.Equal(t, FeatureNotSupported, ErrCode(wrapped))
	assert.True(t, errors.Is(wrapped, base) || errors.Unwrap(wrapped) == base)
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, "ignored"))
}

func TestWrapForeignError(t *testing.T) {
	wrapped := Wrap(io.EOF, "reading result")
	assert.Equal(t, Undefined, ErrCode(wrapped))
	assert.True(t, errors.Is(wrapped, io.EOF))
}

func TestBugf(t *testing.T) {
	err := Bugf("refcount %d", 3)
	assert.Equal(t, "BUG: refcount 3", err.Error())
	assert.Equal(t, Internal, ErrCode(err))
}

func TestErrCodeUndefined(t *testing.T) {
	assert.Equal(t, Undefined, ErrCode(io.EOF))
	assert.Equal(t, Undefined, ErrCode(nil))
}

func TestDeferredRaise(t *testing.T) {
	d := Deferredf(FeatureNotSupported, "cannot handle %s", "this").
		WithDetail("detail").
		WithHint("hint")
	assert.Equal(t, "cannot handle this", d.Error())

	raised := d.Raise()
	require.Error(t, raised)
	assert.Equal(t, FeatureNotSupported, ErrCode(raised))
	assert.Equal(t, "cannot handle this", raised.Error())
}

func TestDeferredNilRaise(t *testing.T) {
	var d *DeferredError
	require.NoError(t, d.Raise())
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "feature not supported", FeatureNotSupported.String())
	assert.Equal(t, "invalid argument", InvalidArgument.String())
	assert.Equal(t, "internal", Internal.String())
	assert.Equal(t, "undefined", Undefined.String())
}
