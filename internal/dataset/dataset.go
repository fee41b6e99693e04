// Package dataset reads and writes the JSON files exchanged between pipeline stages.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/titanous/json5"

	"mhdb/internal/models"
	"mhdb/pkg/digest"
)

// Load errors.
var (
	ErrNotFound  = errors.New("data file not found")
	ErrNotArray  = errors.New("data file must contain a JSON array")
	ErrEmpty     = errors.New("data file contains no institutions")
	ErrNoTarget  = errors.New("targets file lists no colleges")
	ErrMalformed = errors.New("malformed data file")
)

// SyntaxError reports malformed JSON, or a value of the wrong type, with the
// location of the fault. It matches ErrMalformed.
type SyntaxError struct {
	Path   string
	Msg    string
	Line   int
	Column int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrMalformed
}

// LoadInstitutions reads a snapshot or seed file. The file must hold a
// non-empty JSON array.
func LoadInstitutions(path string) ([]models.Institution, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '[' {
		if !json.Valid(trimmed) {
			return nil, syntaxError(path, data, json.Unmarshal(data, new(any)))
		}

		return nil, fmt.Errorf("%w: %s", ErrNotArray, path)
	}

	var insts []models.Institution
	if err := json.Unmarshal(data, &insts); err != nil {
		return nil, syntaxError(path, data, err)
	}

	if len(insts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	return insts, nil
}

// LoadSeed reads the curated seed file. A missing seed file is not an error.
func LoadSeed(path string) ([]models.Institution, error) {
	insts, err := LoadInstitutions(path)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmpty) {
		return nil, nil
	}

	return insts, err
}

// SaveInstitutions writes insts as an indented JSON array, keeping non-ASCII
// characters literal.
func SaveInstitutions(path string, insts []models.Institution) (string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if insts == nil {
		insts = []models.Institution{}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(insts); err != nil {
		return "", fmt.Errorf("failed to encode institutions: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return digest.Bytes(buf.Bytes()), nil
}

// VerifyFile checks the file at path against a digest returned by SaveInstitutions.
func VerifyFile(path, want string) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}

	return digest.Verify(data, want)
}

// LoadTargets reads the target set. Comments and trailing commas are allowed.
func LoadTargets(path string) (*models.TargetSet, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var set models.TargetSet
	if err := json5.Unmarshal(data, &set); err != nil {
		return nil, syntaxError(path, data, err)
	}

	if len(set.Colleges) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTarget, path)
	}

	return &set, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

func syntaxError(path string, data []byte, err error) error {
	var (
		jsonSyntax  *json.SyntaxError
		jsonType    *json.UnmarshalTypeError
		json5Syntax *json5.SyntaxError
		json5Type   *json5.UnmarshalTypeError
		offset      int64
	)

	switch {
	case errors.As(err, &jsonSyntax):
		offset = jsonSyntax.Offset
	case errors.As(err, &jsonType):
		offset = jsonType.Offset
	case errors.As(err, &json5Syntax):
		offset = json5Syntax.Offset
	case errors.As(err, &json5Type):
		offset = json5Type.Offset
	default:
		return fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}

	line, col := position(data, offset)

	return &SyntaxError{Path: path, Msg: err.Error(), Line: line, Column: col}
}

// position converts a decoder offset, which counts the offending byte, into
// a 1-based line and column.
func position(data []byte, offset int64) (int, int) {
	offset = min(max(offset-1, 0), int64(len(data)))

	before := data[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	col := int(offset) - bytes.LastIndexByte(before, '\n')

	return line, col
}
