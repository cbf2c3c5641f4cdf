package notify

import "testing"

func TestViewIsOrderedAndNonDestructive(t *testing.T) {
	q := New(0)
	q.Enqueuef("You liked post ID %d", 1)
	q.Enqueuef("You deleted post ID %d", 2)

	for i := 0; i < 2; i++ {
		got := q.View()
		if len(got) != 2 || got[0] != "You liked post ID 1" || got[1] != "You deleted post ID 2" {
			t.Fatalf("view %d = %v", i, got)
		}
	}
}

func TestViewReturnsCopy(t *testing.T) {
	q := New(0)
	q.Enqueue("a")
	v := q.View()
	v[0] = "mutated"
	if q.View()[0] != "a" {
		t.Fatal("View must not expose internal storage")
	}
}

func TestLimitDropsOldest(t *testing.T) {
	q := New(2)
	q.Enqueue("a")
	q.Enqueue("b")
	q.Enqueue("c")
	got := q.View()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("View = %v, want [b c]", got)
	}
}
