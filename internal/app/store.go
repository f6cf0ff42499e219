package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// documentStore reads and writes one settings file format.
type documentStore interface {
	Read(path string) Document
	Write(path string, doc Document) error
	Encode(doc Document) ([]byte, error)
}

type documentCodec interface {
	decode(data []byte) (Document, error)
	encode(doc Document) ([]byte, error)
}

type fileStore struct {
	codec documentCodec
}

func storeFor(format Format) (documentStore, error) {
	switch format {
	case FormatJSON:
		return fileStore{codec: jsonCodec{}}, nil
	case FormatTOML:
		return fileStore{codec: tomlCodec{}}, nil
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
}

// Read treats a missing file and an undecodable file alike: both start from
// an empty document.
func (s fileStore) Read(path string) Document {
	doc, err := s.load(path)
	if err != nil {
		var fault *ParseFault
		if errors.As(err, &fault) {
			slog.Debug("settings file unreadable, starting from empty document", "path", path, "error", fault.Err)
		} else if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("settings file not readable, starting from empty document", "path", path, "error", err)
		}
		return Document{}
	}
	return doc
}

func (s fileStore) load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := s.codec.decode(data)
	if err != nil {
		return nil, &ParseFault{Path: path, Err: err}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func (s fileStore) Encode(doc Document) ([]byte, error) {
	return s.codec.encode(doc)
}

func (s fileStore) Write(path string, doc Document) error {
	data, err := s.codec.encode(doc)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data, settingsFileMode(path))
}

// settingsFileMode keeps the permissions of an existing settings file; new
// files are private to the user.
func settingsFileMode(path string) os.FileMode {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0o600
	}
	return info.Mode().Perm()
}

type jsonCodec struct{}

func (jsonCodec) decode(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (jsonCodec) encode(doc Document) ([]byte, error) {
	return marshalJSON(map[string]any(doc))
}

type tomlCodec struct{}

func (tomlCodec) decode(data []byte) (Document, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return Document(doc), nil
}

func (tomlCodec) encode(doc Document) ([]byte, error) {
	return toml.Marshal(map[string]any(doc))
}
