package compiler

import "testing"

func TestDeclareAndResolveInSameFrame(t *testing.T) {
	c := NewGlobal()
	c.Declare("x")
	depth, found := c.Resolve("x")
	if !found || depth != 0 {
		t.Errorf("Resolve(x) = %d, %v, want 0, true", depth, found)
	}
}

func TestResolveWalksParentChain(t *testing.T) {
	parent := NewGlobal()
	parent.Declare("x")
	child := parent.NewChild()
	grandchild := child.NewChild()

	depth, found := grandchild.Resolve("x")
	if !found || depth != 2 {
		t.Errorf("Resolve(x) from grandchild = %d, %v, want 2, true", depth, found)
	}
}

func TestResolveUndeclaredNameNotFound(t *testing.T) {
	c := NewGlobal()
	if _, found := c.Resolve("nope"); found {
		t.Error("Resolve of an undeclared name should report not found")
	}
}

func TestHasLocalDoesNotWalkParent(t *testing.T) {
	parent := NewGlobal()
	parent.Declare("x")
	child := parent.NewChild()
	if child.HasLocal("x") {
		t.Error("HasLocal should not see a parent frame's declaration")
	}
	if !parent.HasLocal("x") {
		t.Error("HasLocal should see the declaring frame's own declaration")
	}
}

func TestNewFuncRootPredeclaresInjectedNamesAndParams(t *testing.T) {
	parent := NewGlobal()
	fr := NewFuncRoot(parent, []string{"a", "b"})
	if !fr.IsFuncRoot() {
		t.Error("NewFuncRoot should report IsFuncRoot")
	}
	for _, name := range []string{"__this", "__func", "__varg", "a", "b"} {
		if !fr.HasLocal(name) {
			t.Errorf("expected %q to be predeclared on the function root", name)
		}
	}
}

func TestParentReturnsNilForGlobal(t *testing.T) {
	if NewGlobal().Parent() != nil {
		t.Error("the global context should have a nil parent")
	}
}
