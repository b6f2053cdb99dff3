package util

import (
	"bytes"
	"github.com/pkg/errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

type codecTestDocument struct {
	Name   string             `msgpack:"name"`
	Values map[string]float64 `msgpack:"values"`
}

func TestEncodeAndDecodeCompressed(t *testing.T) {
	// Arrange
	buffer := &bytes.Buffer{}
	document := &codecTestDocument{Name: "pass_002", Values: map[string]float64{"b": 2, "a": 1}}

	// Act
	err := EncodeCompressed(buffer, document)
	AssertNil(t, err)
	decoded := &codecTestDocument{}
	err = DecodeCompressed(buffer, decoded)

	// Assert
	AssertNil(t, err)
	AssertEqual(t, document, decoded)
}

func TestEncodeCompressed_isDeterministic(t *testing.T) {
	// Arrange
	document := &codecTestDocument{Name: "x", Values: map[string]float64{"c": 3, "a": 1, "b": 2}}
	first := &bytes.Buffer{}
	second := &bytes.Buffer{}

	// Act
	AssertNil(t, EncodeCompressed(first, document))
	AssertNil(t, EncodeCompressed(second, document))

	// Assert
	AssertEqual(t, first.Bytes(), second.Bytes())
}

func TestDecodeCompressed_invalidData(t *testing.T) {
	// Act
	err := DecodeCompressed(bytes.NewBufferString("definitely not zstd"), &codecTestDocument{})

	// Assert
	AssertNotNil(t, err)
}

func TestWriteFileAtomic(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "sub", "file.bin")

	// Act
	err := WriteFileAtomic(path, func(writer io.Writer) error {
		_, err := writer.Write([]byte("content"))
		return err
	})

	// Assert
	AssertNil(t, err)
	data, err := os.ReadFile(path)
	AssertNil(t, err)
	AssertEqual(t, "content", string(data))
	_, err = os.Stat(path + ".tmp")
	AssertTrue(t, os.IsNotExist(err))
}

func TestWriteFileAtomic_errorKeepsExistingFile(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "file.bin")
	err := os.WriteFile(path, []byte("old"), 0644)
	AssertNil(t, err)

	// Act
	err = WriteFileAtomic(path, func(writer io.Writer) error {
		_, _ = writer.Write([]byte("half written"))
		return errors.New("disk full")
	})

	// Assert
	AssertNotNil(t, err)
	data, err := os.ReadFile(path)
	AssertNil(t, err)
	AssertEqual(t, "old", string(data))
	_, err = os.Stat(path + ".tmp")
	AssertTrue(t, os.IsNotExist(err))
}
