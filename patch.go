package via

import (
	"strconv"
	"strings"
	"sync"
)

type patchType int

const (
	patchTypeElements patchType = iota
	patchTypeSignals
	patchTypeScript
	patchTypeRedirect
	patchTypeReplaceURL
)

type patch struct {
	typ      patchType
	content  string
	selector string // optional CSS selector for element patches
}

// patchQueueCapacity bounds the per-context patch backlog. A browser that
// cannot drain five patches is behind anyway; older patches are superseded
// by newer full renders, so the oldest are the ones to shed.
const patchQueueCapacity = 5

// patchQueue is a mutex-guarded ring with drop-oldest overflow and a
// notify channel for the SSE pump. A plain buffered channel cannot shed
// its oldest element, so the queue is built by hand.
type patchQueue struct {
	mu     sync.Mutex
	items  []patch
	cap    int
	notify chan struct{}
	closed bool
}

func newPatchQueue(capacity int) *patchQueue {
	if capacity <= 0 {
		capacity = patchQueueCapacity
	}
	return &patchQueue{
		cap:    capacity,
		notify: make(chan struct{}, 1),
	}
}

// push enqueues p, discarding the oldest entries while the queue is at
// capacity. It returns the number of dropped patches. Pushing onto a
// closed queue is a no-op; a late broadcast racing a disconnect is an
// expected condition.
func (q *patchQueue) push(p patch) int {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	dropped := 0
	for len(q.items) >= q.cap {
		q.items = q.items[1:]
		dropped++
	}
	q.items = append(q.items, p)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return dropped
}

// pop removes and returns the oldest patch.
func (q *patchQueue) pop() (patch, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return patch{}, false
	}
	p := q.items[0]
	q.items = q.items[1:]
	return p, true
}

func (q *patchQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// wait returns the channel signalled on push. The pump drains the queue
// fully on each wakeup, so a single-slot channel is enough.
func (q *patchQueue) wait() <-chan struct{} {
	return q.notify
}

func (q *patchQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.items = nil
}

// nestSignals converts a flat signal map with dotted keys into the nested
// object form Datastar expects: {"a.b":1,"a.c":2,"x":3} becomes
// {"a":{"b":1,"c":2},"x":3}. Values are never reinterpreted; arrays stay
// arrays.
func nestSignals(flat map[string]any) map[string]any {
	nested := make(map[string]any, len(flat))
	for key, val := range flat {
		segments := strings.Split(key, ".")
		node := nested
		for _, seg := range segments[:len(segments)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = val
	}
	return nested
}

// flattenSignals converts a nested signal object back into the flat dotted
// form: {"a":{"b":1}} becomes {"a.b":1}. Arrays are values, not levels of
// hierarchy, even when their indices look like keys.
func flattenSignals(nested map[string]any) map[string]any {
	flat := make(map[string]any, len(nested))
	flattenInto(flat, "", nested)
	return flat
}

func flattenInto(flat map[string]any, prefix string, node map[string]any) {
	for key, val := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if child, ok := val.(map[string]any); ok && len(child) > 0 && !isArrayLike(child) {
			flattenInto(flat, full, child)
			continue
		}
		// empty objects are leaves: recursing would drop the key entirely
		flat[full] = val
	}
}

// isArrayLike reports whether every key of m is a decimal index 0..n-1.
// Such maps are list values that decoded through a generic map type and
// must not be flattened into dotted keys.
func isArrayLike(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for i := 0; i < len(m); i++ {
		if _, ok := m[strconv.Itoa(i)]; !ok {
			return false
		}
	}
	return true
}
