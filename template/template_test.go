package template

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/codingersid/blocktemplate/value"
)

func TestEngine_SimpleSubstitution(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "tpl/root.tpl", []byte("Hello, {$name}!"), 0o644)

	e := New(WithFS(fs))
	src, err := e.LoadFile("tpl/root.tpl")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	root := e.RootEntity(src)
	root.Assign("name", value.StringValue("World"))

	out, err := root.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "Hello, World!" {
		t.Errorf("got %q", out)
	}
}

func TestEngine_RepeatingBlock(t *testing.T) {
	fs := afero.NewMemMapFs()
	tpl := "<ul>\n<!-- START BLOCK: row -->\n<li>{$value}</li>\n<!-- END BLOCK: row -->\n</ul>\n"
	afero.WriteFile(fs, "tpl/root.tpl", []byte(tpl), 0o644)

	e := New(WithFS(fs))
	src, err := e.LoadFile("tpl/root.tpl")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	root := e.RootEntity(src)
	for _, v := range []string{"a", "b", "c"} {
		row, err := root.NewChild("row", "")
		if err != nil {
			t.Fatalf("NewChild: %v", err)
		}
		row.Assign("value", value.StringValue(v))
	}

	out, err := root.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "<ul>\n<li>a</li>\n<li>b</li>\n<li>c</li>\n</ul>\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestEngine_ScopeFallback(t *testing.T) {
	fs := afero.NewMemMapFs()
	tpl := "<!-- START BLOCK: row -->\n{$site}/{$page}\n<!-- END BLOCK: row -->\n"
	afero.WriteFile(fs, "tpl/root.tpl", []byte(tpl), 0o644)

	e := New(WithFS(fs))
	e.Assign("site", value.StringValue("X"))

	src, err := e.LoadFile("tpl/root.tpl")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	src.Params.Set("page", value.StringValue("home"))

	root := e.RootEntity(src)
	row, err := root.NewChild("row", "")
	if err != nil {
		t.Fatalf("NewChild: %v", err)
	}
	_ = row

	out, err := root.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "X/home\n" {
		t.Errorf("got %q", out)
	}
}

func TestEngine_LoadFileCachesByPathAndMtime(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "tpl/root.tpl", []byte("v1"), 0o644)

	e := New(WithFS(fs))
	first, err := e.LoadFile("tpl/root.tpl")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	second, err := e.LoadFile("tpl/root.tpl")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if first != second {
		t.Error("expected cached Source for unchanged file")
	}
}

func TestEngine_OutputQueuePreservesSectionOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "tpl/a.tpl", []byte("A"), 0o644)
	afero.WriteFile(fs, "tpl/b.tpl", []byte("B"), 0o644)

	e := New(WithFS(fs))
	srcA, _ := e.LoadFile("tpl/a.tpl")
	srcB, _ := e.LoadFile("tpl/b.tpl")

	e.Queue(srcA, "main")
	e.Queue(srcB, "main")

	out, err := e.OutputQueue()
	if err != nil {
		t.Fatalf("OutputQueue: %v", err)
	}
	if out["main"] != "AB" {
		t.Errorf("got %q", out["main"])
	}

	// Each Source renders exactly once per call: a second OutputQueue
	// call with nothing re-queued yields an empty map.
	out2, err := e.OutputQueue()
	if err != nil {
		t.Fatalf("OutputQueue: %v", err)
	}
	if len(out2) != 0 {
		t.Errorf("expected empty second output, got %v", out2)
	}
}

func TestEngine_RegisterNamedTemplateFallback(t *testing.T) {
	fs := afero.NewMemMapFs()
	tpl := "<!-- USE widget BLOCK: wgt -->\n"
	afero.WriteFile(fs, "tpl/root.tpl", []byte(tpl), 0o644)

	e := New(WithFS(fs))

	if _, err := e.LoadFile("tpl/root.tpl"); err == nil {
		t.Fatal("expected TemplateNotFound before registering the named template")
	}

	defsContent := "<!-- TEMPLATE BLOCK: widget -->\nWidget: {$label}\n<!-- END BLOCK: widget -->\n"
	afero.WriteFile(fs, "tpl/defs.tpl", []byte(defsContent), 0o644)

	defsSrc, err := e.LoadFile("tpl/defs.tpl")
	if err != nil {
		t.Fatalf("LoadFile(defs.tpl): %v", err)
	}
	widget, ok := defsSrc.Root.Children["widget"]
	if !ok {
		t.Fatal("expected defs.tpl to parse a \"widget\" TEMPLATE block")
	}
	e.RegisterNamedTemplate("widget", widget)

	src, err := e.LoadFile("tpl/root.tpl")
	if err != nil {
		t.Fatalf("LoadFile(root.tpl) after registering named template: %v", err)
	}

	root := e.RootEntity(src)
	w, err := root.NewChild("wgt", "")
	if err != nil {
		t.Fatalf("NewChild(wgt): %v", err)
	}
	w.Assign("label", value.StringValue("gadget"))

	out, err := root.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "Widget: gadget\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}
