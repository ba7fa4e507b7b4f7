// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package globals is an optional process-wide registry holding at most one
// value per type. The kernel never reads it; hosts use it to expose their
// top-level objects to code that cannot receive them by parameter.
package globals

import (
	"reflect"
	"sync"
)

var (
	mu     sync.RWMutex
	values = make(map[reflect.Type]any)
)

// Get returns the registered *T, or nil.
func Get[T any]() *T {
	mu.RLock()
	defer mu.RUnlock()
	v, _ := values[reflect.TypeFor[T]()].(*T)
	return v
}

// Set registers v, replacing any previous value, and returns v. A nil v
// clears the entry.
func Set[T any](v *T) *T {
	mu.Lock()
	defer mu.Unlock()
	if v == nil {
		delete(values, reflect.TypeFor[T]())
		return nil
	}
	values[reflect.TypeFor[T]()] = v
	return v
}

// Begin registers v if no *T is registered yet. It reports whether v was
// registered.
func Begin[T any](v *T) bool {
	if v == nil {
		return false
	}
	mu.Lock()
	defer mu.Unlock()
	key := reflect.TypeFor[T]()
	if _, ok := values[key]; ok {
		return false
	}
	values[key] = v
	return true
}

// End clears the entry for T if v is the registered value. It reports
// whether the entry was cleared.
func End[T any](v *T) bool {
	mu.Lock()
	defer mu.Unlock()
	key := reflect.TypeFor[T]()
	if cur, _ := values[key].(*T); cur == nil || cur != v {
		return false
	}
	delete(values, key)
	return true
}
