package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
)

func TestStoreForUnsupportedFormat(t *testing.T) {
	_, err := storeFor(Format("yaml"))
	var unsupported *UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if unsupported.Format != "yaml" {
		t.Fatalf("expected offending format in error, got %q", unsupported.Format)
	}
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected errors.Is ErrUnsupportedFormat")
	}
}

func TestStoreReadMissingAndCorruptAreEmpty(t *testing.T) {
	tmp := t.TempDir()
	for _, format := range []Format{FormatJSON, FormatTOML} {
		store, err := storeFor(format)
		if err != nil {
			t.Fatalf("storeFor(%s): %v", format, err)
		}

		missing := store.Read(filepath.Join(tmp, "missing."+string(format)))
		if missing == nil || len(missing) != 0 {
			t.Fatalf("%s: expected empty document for missing file, got %#v", format, missing)
		}

		corruptPath := filepath.Join(tmp, "corrupt."+string(format))
		if err := os.WriteFile(corruptPath, []byte("{{ not valid = ["), 0o600); err != nil {
			t.Fatalf("write corrupt: %v", err)
		}
		corrupt := store.Read(corruptPath)
		if corrupt == nil || len(corrupt) != 0 {
			t.Fatalf("%s: expected empty document for corrupt file, got %#v", format, corrupt)
		}
	}
}

func TestStoreLoadReportsParseFault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("[1,2"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := fileStore{codec: jsonCodec{}}.load(path)
	var fault *ParseFault
	if !errors.As(err, &fault) {
		t.Fatalf("expected ParseFault, got %v", err)
	}
	if fault.Path != path {
		t.Fatalf("unexpected fault path %q", fault.Path)
	}
}

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dir", "settings.json")
	store, _ := storeFor(FormatJSON)

	doc := Document{
		"env":      map[string]any{"ANTHROPIC_BASE_URL": "https://api.anthropic.com"},
		"count":    json.Number("42"),
		"list":     []any{"a", "b"},
		"disabled": false,
	}
	if err := store.Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := store.Read(path)
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, doc)
	}
}

func TestTOMLStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	store, _ := storeFor(FormatTOML)

	doc := Document{
		"api":   map[string]any{"base_url": "https://api.openai.com/v1"},
		"chat":  map[string]any{"default_model": "gpt-4o-mini"},
		"retry": int64(3),
	}
	if err := store.Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	got := store.Read(path)
	if !reflect.DeepEqual(got, doc) {
		t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", got, doc)
	}
}

func TestJSONStoreWriteIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, _ := storeFor(FormatJSON)
	doc := Document{"b": "2", "a": map[string]any{"z": "1", "y": "0"}}

	if err := store.Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	first, _ := os.ReadFile(path)
	if err := store.Write(path, store.Read(path)); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Fatalf("expected identical output:\n%s\n---\n%s", first, second)
	}
}

func TestStoreWriteKeepsExistingMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not meaningful on windows")
	}
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(existing, []byte("a = 1\n"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := os.Chmod(existing, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	store, _ := storeFor(FormatTOML)
	doc := store.Read(existing)
	doc.SetPath("chat.default_model", "m")
	if err := store.Write(existing, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(existing)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("expected mode 0644 kept, got %v", info.Mode().Perm())
	}

	fresh := filepath.Join(dir, "new", "settings.json")
	jsonStore, _ := storeFor(FormatJSON)
	if err := jsonStore.Write(fresh, Document{"k": "v"}); err != nil {
		t.Fatalf("write fresh: %v", err)
	}
	info, err = os.Stat(fresh)
	if err != nil {
		t.Fatalf("stat fresh: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected new file to be 0600, got %v", info.Mode().Perm())
	}
}

func TestJSONStoreDoesNotEscapeHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	original := "{\n  \"url\": \"https://x.test/?a=1&b=<2>\"\n}\n"
	if err := os.WriteFile(path, []byte(original), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store, _ := storeFor(FormatJSON)
	doc := store.Read(path)
	if err := store.Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != original {
		t.Fatalf("untouched value rewritten:\n%s", data)
	}
	if strings.Contains(string(data), "\\u0026") {
		t.Fatalf("ampersand escaped: %s", data)
	}
}
