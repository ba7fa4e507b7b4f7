// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Modus Contributors

// Package event provides the synchronous publish/subscribe bus that routes
// typed events to listeners.
//
// An event is any concrete Go value. Its TypeID is derived once per type
// from the type's name (or EventName, when the type implements Named) and
// keys the bus categories. Fire runs every handler on the caller's
// goroutine before returning; there is no queue.
package event

import (
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Event is any value fired on a bus. Large payloads should be passed by
// pointer; the bus never copies them.
type Event = any

// TypeID identifies an event type. It is stable within a process run.
type TypeID uint64

// Named lets an event type choose the name its TypeID is hashed from.
// EventName must not depend on the receiver's fields; it is called on a
// zero value. A pointer type *E hashes "*" followed by E's name, so *E and E
// are distinct categories.
type Named interface {
	EventName() string
}

var ids sync.Map // reflect.Type -> TypeID

var namedType = reflect.TypeFor[Named]()

// IDOf returns the TypeID of ev's dynamic type, or 0 for nil. A typed nil
// pointer has the ID of its pointer type.
func IDOf(ev Event) TypeID {
	if ev == nil {
		return 0
	}
	return idOfType(reflect.TypeOf(ev))
}

// TypeOf returns the TypeID of E. E must be a concrete type.
func TypeOf[E any]() TypeID {
	t := reflect.TypeFor[E]()
	if t.Kind() == reflect.Interface {
		return 0
	}
	return idOfType(t)
}

func idOfType(t reflect.Type) TypeID {
	if id, ok := ids.Load(t); ok {
		return id.(TypeID)
	}
	id := TypeID(xxhash.Sum64String(typeName(t)))
	actual, _ := ids.LoadOrStore(t, id)
	return actual.(TypeID)
}

// typeName never calls EventName on a nil pointer.
func typeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		elem := t.Elem()
		if elem.Implements(namedType) || !t.Implements(namedType) {
			return "*" + typeName(elem)
		}
		// EventName has a pointer receiver.
		return "*" + reflect.New(elem).Interface().(Named).EventName()
	}
	if t.Kind() != reflect.Interface && t.Implements(namedType) {
		return reflect.Zero(t).Interface().(Named).EventName()
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
