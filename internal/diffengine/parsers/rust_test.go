package parsers

import (
	"testing"

	"github.com/crabigator/crabigator/internal/diffengine"
)

func TestRustSpecSupports(t *testing.T) {
	if !RustSpec.Supports("src/lib.rs") {
		t.Fatal("expected .rs to be supported")
	}
	if RustSpec.Supports("src/lib.go") {
		t.Fatal("did not expect .go to be supported")
	}
}

func TestRustSpecDetectsAddedFunction(t *testing.T) {
	diff := `@@ -10,6 +10,9 @@ fn existing() {
     let x = 1;
 }

+fn new_function() {
+    println!("hi");
+}
+
 fn another() {
`
	nodes := RustSpec.Parse(diff, "src/lib.rs")

	var found *diffengine.ChangeNode
	for i := range nodes {
		if nodes[i].Name == "new_function" {
			found = &nodes[i]
		}
	}
	if found == nil {
		t.Fatalf("expected a ChangeNode for new_function, got %+v", nodes)
	}
	if found.Kind != diffengine.KindFunction {
		t.Fatalf("expected KindFunction, got %v", found.Kind)
	}
	if found.ChangeType != diffengine.Added {
		t.Fatalf("expected Added, got %v", found.ChangeType)
	}
	if found.Additions != 4 {
		t.Fatalf("expected 4 additions, got %d", found.Additions)
	}
	if found.LineNumber == 0 {
		t.Fatal("expected a nonzero line number")
	}
}

func TestRustSpecImplForTrait(t *testing.T) {
	diff := `@@ -1,0 +1,3 @@
+impl Display for Widget {
+    fn fmt(&self) {}
+}
`
	nodes := RustSpec.Parse(diff, "src/widget.rs")
	if len(nodes) == 0 {
		t.Fatal("expected at least one change node")
	}
	if nodes[0].Kind != diffengine.KindImpl || nodes[0].Name != "Display for Widget" {
		t.Fatalf("expected impl Display for Widget, got %+v", nodes[0])
	}
}
