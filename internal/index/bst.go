// Package index builds transient search structures over posts: a binary
// search tree keyed by id or like count, and an id-sorted view for binary
// search. Nothing here is kept between queries; callers build, query, and
// drop.
package index

import "github.com/Adithya-Monish-Kumar-K/content-store/internal/model"

const nilSlot int32 = -1

// Entry is what a tree node stores: the key it is ordered by and the post it
// points at.
type Entry struct {
	Key    int
	PostID int
}

type node struct {
	entry       Entry
	left, right int32
}

// Tree is an unbalanced binary search tree whose nodes live in a slice and
// link to each other by slot number. Shape follows insertion order, so
// operations are O(depth). All walks are iterative.
//
// With duplicates enabled, equal keys go to the right subtree, keeping the
// invariant left < node <= right.
type Tree struct {
	nodes      []node
	free       []int32
	root       int32
	size       int
	duplicates bool
}

func NewTree(allowDuplicates bool) *Tree {
	return &Tree{root: nilSlot, duplicates: allowDuplicates}
}

// BuildByID indexes posts by id, in the order given.
func BuildByID(posts []model.Post) *Tree {
	t := NewTree(false)
	t.nodes = make([]node, 0, len(posts))
	for _, p := range posts {
		t.Insert(p.ID, p.ID)
	}
	return t
}

// BuildByLikes indexes posts by like count, in the order given.
func BuildByLikes(posts []model.Post) *Tree {
	t := NewTree(true)
	t.nodes = make([]node, 0, len(posts))
	for _, p := range posts {
		t.Insert(p.LikeCount, p.ID)
	}
	return t
}

func (t *Tree) Len() int { return t.size }

// Insert adds key. Without duplicates, an existing key is left untouched
// and Insert returns false.
func (t *Tree) Insert(key, postID int) bool {
	slot := t.alloc(Entry{Key: key, PostID: postID})
	if t.root == nilSlot {
		t.root = slot
		t.size++
		return true
	}
	cur := t.root
	for {
		n := &t.nodes[cur]
		switch {
		case key < n.entry.Key:
			if n.left == nilSlot {
				n.left = slot
				t.size++
				return true
			}
			cur = n.left
		case key > n.entry.Key || t.duplicates:
			if n.right == nilSlot {
				n.right = slot
				t.size++
				return true
			}
			cur = n.right
		default:
			t.release(slot)
			return false
		}
	}
}

// Search returns the entry closest to the root with the given key.
func (t *Tree) Search(key int) (Entry, bool) {
	cur := t.root
	for cur != nilSlot {
		n := t.nodes[cur]
		switch {
		case key < n.entry.Key:
			cur = n.left
		case key > n.entry.Key:
			cur = n.right
		default:
			return n.entry, true
		}
	}
	return Entry{}, false
}

// SearchAll returns every entry with the given key, nearest the root first.
// Equal keys always lie on one downward path because they sit to the right
// of each other.
func (t *Tree) SearchAll(key int) []Entry {
	var out []Entry
	cur := t.root
	for cur != nilSlot {
		n := t.nodes[cur]
		switch {
		case key < n.entry.Key:
			cur = n.left
		case key > n.entry.Key:
			cur = n.right
		default:
			out = append(out, n.entry)
			cur = n.right
		}
	}
	return out
}

// Delete removes one entry with the given key. A node with two children
// takes over its in-order successor's entry and the successor is unlinked.
func (t *Tree) Delete(key int) bool {
	parent, cur := nilSlot, t.root
	for cur != nilSlot && t.nodes[cur].entry.Key != key {
		parent = cur
		if key < t.nodes[cur].entry.Key {
			cur = t.nodes[cur].left
		} else {
			cur = t.nodes[cur].right
		}
	}
	if cur == nilSlot {
		return false
	}

	n := &t.nodes[cur]
	if n.left != nilSlot && n.right != nilSlot {
		succParent, succ := cur, n.right
		for t.nodes[succ].left != nilSlot {
			succParent = succ
			succ = t.nodes[succ].left
		}
		n.entry = t.nodes[succ].entry
		t.replaceChild(succParent, succ, t.nodes[succ].right)
		t.release(succ)
		t.size--
		return true
	}

	child := n.left
	if child == nilSlot {
		child = n.right
	}
	t.replaceChild(parent, cur, child)
	t.release(cur)
	t.size--
	return true
}

// InOrder returns all entries in ascending key order.
func (t *Tree) InOrder() []Entry {
	out := make([]Entry, 0, t.size)
	stack := make([]int32, 0, 16)
	cur := t.root
	for cur != nilSlot || len(stack) > 0 {
		for cur != nilSlot {
			stack = append(stack, cur)
			cur = t.nodes[cur].left
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, t.nodes[cur].entry)
		cur = t.nodes[cur].right
	}
	return out
}

func (t *Tree) replaceChild(parent, old, repl int32) {
	switch {
	case parent == nilSlot:
		t.root = repl
	case t.nodes[parent].left == old:
		t.nodes[parent].left = repl
	default:
		t.nodes[parent].right = repl
	}
}

func (t *Tree) alloc(e Entry) int32 {
	n := node{entry: e, left: nilSlot, right: nilSlot}
	if k := len(t.free); k > 0 {
		slot := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[slot] = n
		return slot
	}
	t.nodes = append(t.nodes, n)
	return int32(len(t.nodes) - 1)
}

func (t *Tree) release(slot int32) {
	t.nodes[slot] = node{left: nilSlot, right: nilSlot}
	t.free = append(t.free, slot)
}
