// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package globals_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Gurman8r/modus-sub002/internal/globals"
)

type service struct{ name string }

type other struct{}

func TestBeginEnd(t *testing.T) {
	a := &service{name: "a"}
	b := &service{name: "b"}
	t.Cleanup(func() { globals.Set[service](nil) })

	assert.Nil(t, globals.Get[service]())
	assert.True(t, globals.Begin(a))
	assert.False(t, globals.Begin(b), "second begin must not replace")
	assert.Same(t, a, globals.Get[service]())
	assert.Nil(t, globals.Get[other](), "entries are per type")

	assert.False(t, globals.End(b), "only the registered value may end")
	assert.True(t, globals.End(a))
	assert.Nil(t, globals.Get[service]())
	assert.False(t, globals.End(a))
}

func TestSet(t *testing.T) {
	t.Cleanup(func() { globals.Set[service](nil) })

	a := globals.Set(&service{name: "a"})
	assert.Same(t, a, globals.Get[service]())

	b := globals.Set(&service{name: "b"})
	assert.Same(t, b, globals.Get[service]())

	assert.Nil(t, globals.Set[service](nil))
	assert.Nil(t, globals.Get[service]())
	assert.False(t, globals.Begin[service](nil))
}
