// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package abi_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

type widget struct{ name string }

func TestTable_PutGetTake(t *testing.T) {
	var table abi.Table[widget]

	a := table.Put(&widget{name: "a"})
	b := table.Put(&widget{name: "b"})
	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, table.Len())

	require.NotNil(t, table.Get(a))
	assert.Equal(t, "a", table.Get(a).name)

	got := table.Take(a)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.name)
	assert.Nil(t, table.Get(a))
	assert.Nil(t, table.Take(a), "second take must find nothing")
	assert.Equal(t, 1, table.Len())

	c := table.Put(&widget{name: "c"})
	assert.NotEqual(t, a, c, "refs are not reused")
}

func TestTable_Concurrent(t *testing.T) {
	var table abi.Table[widget]
	var wg sync.WaitGroup

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref := table.Put(&widget{})
			table.Take(ref)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, table.Len())
}

func TestGuard(t *testing.T) {
	panicking := abi.Guard(func(abi.Ref, abi.Ref) abi.Ref { panic("boom") })
	assert.Equal(t, abi.Ref(0), panicking(1, 0))

	ok := abi.Guard(func(_, user abi.Ref) abi.Ref { return user + 1 })
	assert.Equal(t, abi.Ref(8), ok(1, 7))
}

func TestGuardDestroy(t *testing.T) {
	var got abi.Ref
	destroy := abi.GuardDestroy(func(_, inst abi.Ref) {
		got = inst
		panic("boom")
	})

	assert.NotPanics(t, func() { destroy(1, 5) })
	assert.Equal(t, abi.Ref(5), got)
}
