package parsers

import (
	"testing"

	"github.com/crabigator/crabigator/internal/diffengine"
)

func TestTypeScriptSpecSupportsExtensions(t *testing.T) {
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"} {
		if !TypeScriptSpec.Supports("file" + ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	if TypeScriptSpec.Supports("file.py") {
		t.Fatal("did not expect .py to be supported")
	}
}

func TestTypeScriptSpecDetectsInterfaceAsTrait(t *testing.T) {
	diff := `@@ -1,0 +1,3 @@
+export interface Widget {
+  id: string;
+}
`
	nodes := TypeScriptSpec.Parse(diff, "widget.ts")
	if len(nodes) == 0 {
		t.Fatal("expected a change node")
	}
	if nodes[0].Kind != diffengine.KindTrait || nodes[0].Name != "Widget" {
		t.Fatalf("expected Trait Widget, got %+v", nodes[0])
	}
}

func TestTypeScriptSpecDetectsArrowConst(t *testing.T) {
	diff := `@@ -4,0 +5,3 @@
+export const handleClick = (event) => {
+  doThing();
+};
`
	nodes := TypeScriptSpec.Parse(diff, "handlers.ts")
	var found bool
	for _, n := range nodes {
		if n.Name == "handleClick" && n.Kind == diffengine.KindFunction {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected handleClick function node, got %+v", nodes)
	}
}
