package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Document is one query candidate read from an input file.
type Document struct {
	// Source locates the query: the file path, plus "#N" (1-based) when
	// the file holds several queries.
	Source string
	Query  any
}

// LoadError is returned when an input file cannot be read or parsed.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
}

// LoadDocuments reads query candidates from a file. The format follows
// the extension:
//
//   - .json: one JSON value, numbers kept exact
//   - .yaml, .yml: one or more YAML documents
//   - .cue: one CUE value, which must be concrete
//
// Each value is a query object or a list of query objects.
func LoadDocuments(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "file not found"}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: err.Error()}
	}

	var values []any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		values, err = decodeJSON(data)
	case ".yaml", ".yml":
		values, err = decodeYAML(data)
	case ".cue":
		values, err = decodeCUE(data, path)
	default:
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: fmt.Sprintf("unsupported file extension %q", ext)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: err.Error()}
	}

	var queries []any
	for _, v := range values {
		if list, ok := v.([]any); ok {
			queries = append(queries, list...)
			continue
		}
		queries = append(queries, v)
	}
	if len(queries) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "no queries found"}
	}

	docs := make([]Document, len(queries))
	for i, q := range queries {
		docs[i] = Document{Source: path, Query: q}
		if len(queries) > 1 {
			docs[i].Source = fmt.Sprintf("%s#%d", path, i+1)
		}
	}
	return docs, nil
}

// decodeJSON decodes a single JSON value with json.Number for numbers.
func decodeJSON(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: unexpected data after the first value")
	}
	return []any{v}, nil
}

// decodeYAML decodes every document of a YAML stream, skipping empty ones.
func decodeYAML(data []byte) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []any
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		if v != nil {
			out = append(out, v)
		}
	}
}

// decodeCUE evaluates a CUE file and exports it through JSON, so numbers
// arrive as json.Number like JSON input.
func decodeCUE(data []byte, path string) ([]any, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE value is not concrete: %w", err)
	}
	exported, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting CUE value: %w", err)
	}
	return decodeJSON(exported)
}
