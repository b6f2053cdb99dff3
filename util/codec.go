package util

import (
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"io"
	"os"
	"path/filepath"
)

// EncodeCompressed writes the object as zstd compressed msgpack document.
func EncodeCompressed(writer io.Writer, object any) error {
	zstdWriter, err := zstd.NewWriter(writer, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return errors.Wrap(err, "Unable to create zstd writer")
	}

	encoder := msgpack.NewEncoder(zstdWriter)
	encoder.SetSortMapKeys(true)
	err = encoder.Encode(object)
	if err != nil {
		zstdWriter.Close()
		return errors.Wrap(err, "Unable to encode msgpack document")
	}

	err = zstdWriter.Close()
	if err != nil {
		return errors.Wrap(err, "Unable to flush zstd writer")
	}

	return nil
}

// DecodeCompressed reads a document written by EncodeCompressed into the given object pointer.
func DecodeCompressed(reader io.Reader, object any) error {
	zstdReader, err := zstd.NewReader(reader)
	if err != nil {
		return errors.Wrap(err, "Unable to create zstd reader")
	}
	defer zstdReader.Close()

	err = msgpack.NewDecoder(zstdReader).Decode(object)
	if err != nil {
		return errors.Wrap(err, "Unable to decode msgpack document")
	}

	return nil
}

// WriteFileAtomic writes into "<path>.tmp" and renames it to the given path once everything has been written and
// synced. On error, the temporary file is removed and an existing file at the given path stays untouched.
func WriteFileAtomic(path string, write func(writer io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		return errors.Wrapf(err, "Unable to create directory %s", dir)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return errors.Wrapf(err, "Unable to create temporary file %s", tmpPath)
	}

	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	err = write(file)
	if err != nil {
		return errors.Wrapf(err, "Unable to write temporary file %s", tmpPath)
	}

	err = file.Sync()
	if err != nil {
		return errors.Wrapf(err, "Unable to sync temporary file %s", tmpPath)
	}

	err = file.Close()
	if err != nil {
		return errors.Wrapf(err, "Unable to close temporary file %s", tmpPath)
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		return errors.Wrapf(err, "Unable to move %s to %s", tmpPath, path)
	}

	return nil
}
