package view

import (
	"io/fs"
	"reflect"
	"strconv"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// memo holds resolved lookups. Entries never expire on their own; they
// are dropped by Flush when the watcher sees a view tree change.
type memo struct {
	cache *gocache.Cache
}

func newMemo() *memo {
	return &memo{cache: gocache.New(gocache.NoExpiration, 0)}
}

func (m *memo) get(key string) (Candidate, bool) {
	if m == nil {
		return Candidate{}, false
	}
	v, ok := m.cache.Get(key)
	if !ok {
		return Candidate{}, false
	}
	c, ok := v.(Candidate)
	return c, ok
}

func (m *memo) set(key string, c Candidate) {
	if m == nil {
		return
	}
	m.cache.Set(key, c, gocache.NoExpiration)
}

func (m *memo) flush() {
	if m == nil {
		return
	}
	m.cache.Flush()
}

func (m *memo) len() int {
	if m == nil {
		return 0
	}
	return m.cache.ItemCount()
}

func memoKey(name string, formats []Format, locales []Locale, roots []string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('|')
	for i, f := range formats {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(f))
	}
	b.WriteByte('|')
	for i, l := range locales {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(l))
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(roots, ","))
	return b.String()
}

// treeIDs numbers the view trees a renderer has seen, so cache keys tell
// apart two roots that share a name. Trees are held for the renderer's
// lifetime.
type treeIDs struct {
	mu    sync.Mutex
	trees []fs.FS
}

// key returns "name#n" for root. ok is false when the tree has no stable
// identity; such roots are never cached.
func (t *treeIDs) key(root Root) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, tree := range t.trees {
		if sameTree(tree, root.FS) {
			return root.Name + "#" + strconv.Itoa(i), true
		}
	}
	if !identifiable(root.FS) {
		return "", false
	}
	t.trees = append(t.trees, root.FS)
	return root.Name + "#" + strconv.Itoa(len(t.trees)-1), true
}

// keys maps roots to their cache keys. ok is false if any root has no
// stable identity.
func (t *treeIDs) keys(roots []Root) ([]string, bool) {
	out := make([]string, len(roots))
	for i, root := range roots {
		k, ok := t.key(root)
		if !ok {
			return nil, false
		}
		out[i] = k
	}
	return out, true
}

func identifiable(fsys fs.FS) bool {
	v := reflect.ValueOf(fsys)
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Map, reflect.Pointer:
		return true
	default:
		return v.Comparable()
	}
}

// sameTree compares maps and pointers by address and other trees, such as
// os.DirFS values, by value.
func sameTree(a, b fs.FS) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer:
		return va.Pointer() == vb.Pointer()
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return va.Equal(vb)
}
