package parsers

import (
	"testing"

	"github.com/crabigator/crabigator/internal/diffengine"
)

func TestSwiftSpecSupports(t *testing.T) {
	if !SwiftSpec.Supports("Widget.swift") {
		t.Fatal("expected .swift to be supported")
	}
}

func TestSwiftSpecDetectsExtension(t *testing.T) {
	diff := `@@ -1,0 +1,3 @@
+extension Widget {
+    func helper() {}
+}
`
	nodes := SwiftSpec.Parse(diff, "Widget.swift")
	var found bool
	for _, n := range nodes {
		if n.Kind == diffengine.KindImpl && n.Name == "Widget" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an Impl node for extension Widget, got %+v", nodes)
	}
}

func TestSwiftSpecDetectsProtocolAsTrait(t *testing.T) {
	diff := `@@ -1,0 +1,2 @@
+public protocol Renderable {
+}
`
	nodes := SwiftSpec.Parse(diff, "Renderable.swift")
	if len(nodes) == 0 || nodes[0].Kind != diffengine.KindTrait || nodes[0].Name != "Renderable" {
		t.Fatalf("expected Trait Renderable, got %+v", nodes)
	}
}
