// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

package plugin

import (
	"github.com/Gurman8r/modus-sub002/internal/native"
	"github.com/Gurman8r/modus-sub002/pkg/abi"
)

// row is one installed plugin, assembled from the table's columns.
type row struct {
	id        ID
	library   *native.Library
	details   native.Details
	installer Installer
	handle    Handle
	user      abi.Ref
	userdata  any
	block     []byte
}

// table stores plugin rows column by column in installation order, with an
// id index over row positions.
type table struct {
	ids        []ID
	libraries  []*native.Library
	details    []native.Details
	installers []Installer
	handles    []Handle
	users      []abi.Ref
	userdata   []any
	blocks     [][]byte
	index      map[ID]int
}

func newTable() table {
	return table{index: make(map[ID]int)}
}

func (t *table) len() int { return len(t.ids) }

func (t *table) lookup(id ID) (int, bool) {
	if id == 0 {
		return 0, false
	}
	i, ok := t.index[id]
	return i, ok
}

// back returns the position of the most recently installed row for which
// skip is false. A nil skip accepts every row.
func (t *table) back(skip func(ID) bool) (int, bool) {
	for i := len(t.ids) - 1; i >= 0; i-- {
		if skip == nil || !skip(t.ids[i]) {
			return i, true
		}
	}
	return -1, false
}

func (t *table) push(r row) int {
	i := len(t.ids)
	t.ids = append(t.ids, r.id)
	t.libraries = append(t.libraries, r.library)
	t.details = append(t.details, r.details)
	t.installers = append(t.installers, r.installer)
	t.handles = append(t.handles, r.handle)
	t.users = append(t.users, r.user)
	t.userdata = append(t.userdata, r.userdata)
	t.blocks = append(t.blocks, r.block)
	t.index[r.id] = i
	return i
}

// erase removes row i, shifting later rows down and re-indexing them.
func (t *table) erase(i int) row {
	r := t.at(i)

	t.ids = eraseAt(t.ids, i)
	t.libraries = eraseAt(t.libraries, i)
	t.details = eraseAt(t.details, i)
	t.installers = eraseAt(t.installers, i)
	t.handles = eraseAt(t.handles, i)
	t.users = eraseAt(t.users, i)
	t.userdata = eraseAt(t.userdata, i)
	t.blocks = eraseAt(t.blocks, i)

	delete(t.index, r.id)
	for j := i; j < len(t.ids); j++ {
		t.index[t.ids[j]] = j
	}
	return r
}

func (t *table) at(i int) row {
	return row{
		id:        t.ids[i],
		library:   t.libraries[i],
		details:   t.details[i],
		installer: t.installers[i],
		handle:    t.handles[i],
		user:      t.users[i],
		userdata:  t.userdata[i],
		block:     t.blocks[i],
	}
}

func eraseAt[T any](s []T, i int) []T {
	var zero T
	copy(s[i:], s[i+1:])
	s[len(s)-1] = zero
	return s[:len(s)-1]
}
