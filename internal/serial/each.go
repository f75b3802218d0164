package serial

import (
	"sort"

	"github.com/leapstack-labs/h5pup/pkg/params"
)

// Collection is an ordered traversal plan: a snapshot of keys taken when the
// collection is built plus a lookup for the value under each key. Values are
// read when their step starts; the key plan never changes.
type Collection[K, V any] struct {
	keys []K
	get  func(K) V
}

// Len returns the number of planned steps.
func (c Collection[K, V]) Len() int {
	return len(c.keys)
}

// Slice plans a visit of s in index order.
func Slice[V any](s []V) Collection[int, V] {
	keys := make([]int, len(s))
	for i := range keys {
		keys[i] = i
	}
	return Collection[int, V]{
		keys: keys,
		get:  func(i int) V { return s[i] },
	}
}

// Keys plans a visit of o's keys in their current order.
func Keys(o *params.Object) Collection[string, any] {
	return Collection[string, any]{
		keys: o.Keys(),
		get: func(k string) any {
			v, _ := o.Get(k)
			return v
		},
	}
}

// Sorted plans a visit of m in ascending key order.
func Sorted[V any](m map[int]V) Collection[int, V] {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return Collection[int, V]{
		keys: keys,
		get:  func(k int) V { return m[k] },
	}
}

// Step processes one element. It must eventually call advance; a non-nil
// error stops the iteration. Only the first call to advance counts.
type Step[K, V any] func(key K, value V, advance func(error))

// Each visits the elements of c one at a time, in order, on loop l.
// done is called exactly once: with the first error reported by a step, or
// with nil after the last element (immediately-scheduled for an empty
// collection). Elements after a failing one are never visited.
func Each[K, V any](l *Loop, c Collection[K, V], step Step[K, V], done func(error)) {
	i := -1

	var check func(err error)
	check = func(err error) {
		l.Post(func() {
			i++
			if err != nil || i == len(c.keys) {
				done(err)
				return
			}

			key := c.keys[i]
			advanced := false
			step(key, c.get(key), func(err error) {
				if advanced {
					return
				}
				advanced = true
				check(err)
			})
		})
	}

	check(nil)
}
