package capability

// Generic radix tree in the lineage of armon/go-radix, cut down to what
// prefix dispatch needs: insert, remove, longest-prefix lookup and ordered
// iteration.

import (
	"iter"
	"sort"
	"strings"
)

type leafNode[T any] struct {
	key string
	val T
}

type branch[T any] struct {
	label byte
	node  *node[T]
}

type node[T any] struct {
	leaf     *leafNode[T]
	prefix   string
	branches []branch[T]
}

func (n *node[T]) isLeaf() bool {
	return n.leaf != nil
}

func (n *node[T]) addBranch(b branch[T]) {
	num := len(n.branches)
	idx := sort.Search(num, func(i int) bool {
		return n.branches[i].label >= b.label
	})
	n.branches = append(n.branches, branch[T]{})
	copy(n.branches[idx+1:], n.branches[idx:])
	n.branches[idx] = b
}

func (n *node[T]) replaceBranch(label byte, child *node[T]) {
	num := len(n.branches)
	idx := sort.Search(num, func(i int) bool {
		return n.branches[i].label >= label
	})
	if idx < num && n.branches[idx].label == label {
		n.branches[idx].node = child
		return
	}
	panic("replacing missing branch")
}

func (n *node[T]) getBranch(label byte) *node[T] {
	num := len(n.branches)
	idx := sort.Search(num, func(i int) bool {
		return n.branches[i].label >= label
	})
	if idx < num && n.branches[idx].label == label {
		return n.branches[idx].node
	}
	return nil
}

func (n *node[T]) delBranch(label byte) {
	num := len(n.branches)
	idx := sort.Search(num, func(i int) bool {
		return n.branches[i].label >= label
	})
	if idx < num && n.branches[idx].label == label {
		copy(n.branches[idx:], n.branches[idx+1:])
		n.branches[len(n.branches)-1] = branch[T]{}
		n.branches = n.branches[:len(n.branches)-1]
	}
}

func (n *node[T]) mergeChild() {
	child := n.branches[0].node
	n.prefix = n.prefix + child.prefix
	n.leaf = child.leaf
	n.branches = child.branches
}

type tree[T any] struct {
	root *node[T]
	size int
}

func newTree[T any]() *tree[T] {
	return &tree[T]{root: &node[T]{}}
}

func (t *tree[T]) len() int {
	return t.size
}

func sharedPrefix(k1, k2 string) int {
	limit := len(k1)
	if l := len(k2); l < limit {
		limit = l
	}
	var i int
	for i = 0; i < limit; i++ {
		if k1[i] != k2[i] {
			break
		}
	}
	return i
}

func (t *tree[T]) insert(s string, v T) (old T, updated bool) {
	var parent *node[T]
	n := t.root
	search := s
	for {
		if len(search) == 0 {
			if n.isLeaf() {
				old = n.leaf.val
				n.leaf.val = v
				return old, true
			}
			n.leaf = &leafNode[T]{key: s, val: v}
			t.size++
			return old, false
		}

		parent = n
		n = n.getBranch(search[0])

		if n == nil {
			parent.addBranch(branch[T]{
				label: search[0],
				node: &node[T]{
					leaf:   &leafNode[T]{key: s, val: v},
					prefix: search,
				},
			})
			t.size++
			return old, false
		}

		common := sharedPrefix(search, n.prefix)
		if common == len(n.prefix) {
			search = search[common:]
			continue
		}

		// The search key diverges inside this node: split it.
		t.size++
		child := &node[T]{prefix: search[:common]}
		parent.replaceBranch(search[0], child)

		child.addBranch(branch[T]{label: n.prefix[common], node: n})
		n.prefix = n.prefix[common:]

		leaf := &leafNode[T]{key: s, val: v}
		search = search[common:]
		if len(search) == 0 {
			child.leaf = leaf
			return old, false
		}
		child.addBranch(branch[T]{
			label: search[0],
			node:  &node[T]{leaf: leaf, prefix: search},
		})
		return old, false
	}
}

func (t *tree[T]) remove(s string) (removed T, had bool) {
	var parent *node[T]
	var label byte
	n := t.root
	search := s
	for {
		if len(search) == 0 {
			if !n.isLeaf() {
				return
			}
			break
		}

		parent = n
		label = search[0]
		n = n.getBranch(label)
		if n == nil {
			return
		}

		if strings.HasPrefix(search, n.prefix) {
			search = search[len(n.prefix):]
		} else {
			return
		}
	}

	leaf := n.leaf
	n.leaf = nil
	t.size--

	if parent != nil && len(n.branches) == 0 {
		parent.delBranch(label)
	}
	if n != t.root && len(n.branches) == 1 {
		n.mergeChild()
	}
	if parent != nil && parent != t.root && len(parent.branches) == 1 && !parent.isLeaf() {
		parent.mergeChild()
	}
	return leaf.val, true
}

func (t *tree[T]) get(s string) (val T, found bool) {
	n := t.root
	search := s
	for {
		if len(search) == 0 {
			if n.isLeaf() {
				return n.leaf.val, true
			}
			return
		}
		n = n.getBranch(search[0])
		if n == nil {
			return
		}
		if strings.HasPrefix(search, n.prefix) {
			search = search[len(n.prefix):]
		} else {
			return
		}
	}
}

// longestPrefix returns the entry whose key is the longest prefix of `s`.
func (t *tree[T]) longestPrefix(s string) (key string, val T, found bool) {
	var last *leafNode[T]
	n := t.root
	search := s
	for {
		if n.isLeaf() {
			last = n.leaf
		}
		if len(search) == 0 {
			break
		}
		n = n.getBranch(search[0])
		if n == nil {
			break
		}
		if strings.HasPrefix(search, n.prefix) {
			search = search[len(n.prefix):]
		} else {
			break
		}
	}
	if last != nil {
		return last.key, last.val, true
	}
	return
}

func (t *tree[T]) walk() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		walkNode(t.root, yield)
	}
}

func walkNode[T any](n *node[T], yield func(string, T) bool) bool {
	if n.leaf != nil && !yield(n.leaf.key, n.leaf.val) {
		return true
	}
	for _, b := range n.branches {
		if walkNode(b.node, yield) {
			return true
		}
	}
	return false
}
