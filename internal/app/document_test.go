package app

import (
	"reflect"
	"testing"
)

func TestSetPathCreatesIntermediateMaps(t *testing.T) {
	doc := Document{}
	doc.SetPath("a.b.c", "v")

	got, ok := doc.GetPath("a.b.c")
	if !ok || got != "v" {
		t.Fatalf("expected a.b.c=v, got %v (found=%v)", got, ok)
	}
}

func TestSetPathPreservesSiblings(t *testing.T) {
	doc := Document{
		"top": "keep",
		"a": map[string]any{
			"sibling": float64(1),
			"b": map[string]any{
				"other": []any{"x", "y"},
			},
		},
	}
	doc.SetPath("a.b.c", "v")

	want := Document{
		"top": "keep",
		"a": map[string]any{
			"sibling": float64(1),
			"b": map[string]any{
				"other": []any{"x", "y"},
				"c":     "v",
			},
		},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Fatalf("unexpected document:\n got  %#v\n want %#v", doc, want)
	}
}

func TestSetPathOverwritesNonMapIntermediates(t *testing.T) {
	cases := map[string]any{
		"string": "scalar",
		"number": float64(3),
		"array":  []any{1, 2},
		"null":   nil,
	}
	for name, existing := range cases {
		t.Run(name, func(t *testing.T) {
			doc := Document{"a": existing}
			doc.SetPath("a.b", "v")
			inner, ok := doc["a"].(map[string]any)
			if !ok {
				t.Fatalf("expected a to become a map, got %T", doc["a"])
			}
			if len(inner) != 1 || inner["b"] != "v" {
				t.Fatalf("unexpected contents: %#v", inner)
			}
		})
	}
}

func TestSetPathSingleSegmentAndOverwrite(t *testing.T) {
	doc := Document{"OPENAI_API_KEY": "old"}
	doc.SetPath("OPENAI_API_KEY", "new")
	if doc["OPENAI_API_KEY"] != "new" {
		t.Fatalf("expected overwrite, got %v", doc["OPENAI_API_KEY"])
	}
}

func TestSetPathDescendsIntoNestedDocument(t *testing.T) {
	doc := Document{"env": Document{"KEEP": "1"}}
	doc.SetPath("env.NEW", "2")
	inner, ok := doc["env"].(Document)
	if !ok {
		t.Fatalf("expected nested Document kept, got %T", doc["env"])
	}
	if inner["KEEP"] != "1" || inner["NEW"] != "2" {
		t.Fatalf("unexpected nested document: %#v", inner)
	}
}

func TestGetPathMissing(t *testing.T) {
	doc := Document{"a": "scalar"}
	if _, ok := doc.GetPath("a.b"); ok {
		t.Fatalf("expected descent through scalar to fail")
	}
	if _, ok := doc.GetPath("missing"); ok {
		t.Fatalf("expected missing key")
	}
}
