package swath

import (
	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"
	"io"
	"os"
	"swotdb/util"
	"time"
)

const (
	ContainerExtension = ".swath"
	containerVersion   = 1
)

// container is the on-disk document of a swath container file. Containers are zstd compressed msgpack documents.
type container struct {
	Version    int                    `msgpack:"version"`
	NumLines   int                    `msgpack:"num_lines"`
	NumPixels  int                    `msgpack:"num_pixels"`
	Latitude   [][]float64            `msgpack:"latitude"`
	Longitude  [][]float64            `msgpack:"longitude"`
	Time       []time.Time            `msgpack:"time"`
	Variables  map[string][][]float64 `msgpack:"variables,omitempty"`
	Attributes map[string]string      `msgpack:"attributes,omitempty"`
}

// ContainerOpener opens swath container files. The whole file is read into memory.
type ContainerOpener struct{}

func (o ContainerOpener) Open(path string) (Swath, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open swath container %s", path)
	}
	defer file.Close()

	return ReadContainer(file)
}

func ReadContainer(reader io.Reader) (*MemorySwath, error) {
	doc := &container{}
	err := util.DecodeCompressed(reader, doc)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to read swath container")
	}

	if doc.Version > containerVersion {
		return nil, errors.Errorf("Unsupported swath container version %d", doc.Version)
	}
	if len(doc.Latitude) != doc.NumLines || len(doc.Longitude) != doc.NumLines {
		return nil, errors.Errorf("Swath container declares %d lines but has %d latitude and %d longitude lines", doc.NumLines, len(doc.Latitude), len(doc.Longitude))
	}
	for i := range doc.Latitude {
		if len(doc.Latitude[i]) != doc.NumPixels || len(doc.Longitude[i]) != doc.NumPixels {
			return nil, errors.Errorf("Line %d of swath container does not have %d pixels", i, doc.NumPixels)
		}
	}
	if doc.Time != nil && len(doc.Time) != doc.NumLines {
		return nil, errors.Errorf("Swath container declares %d lines but has %d time values", doc.NumLines, len(doc.Time))
	}

	s := NewMemorySwath(doc.Latitude, doc.Longitude, doc.Time)
	if doc.Variables != nil {
		s.Data = doc.Variables
	}
	if doc.Attributes != nil {
		s.Attributes = doc.Attributes
	}

	return s, nil
}

// WriteContainerFile writes the complete swath into a container file at the given path.
func WriteContainerFile(path string, s Swath) error {
	sigolo.Debugf("Write swath container %s", path)
	return util.WriteFileAtomic(path, func(writer io.Writer) error {
		return WriteContainer(writer, s)
	})
}

func WriteContainer(writer io.Writer, s Swath) error {
	numLines := s.NumLines()

	block, err := s.Geolocation(0, numLines)
	if err != nil {
		return errors.Wrap(err, "Unable to read geolocation")
	}

	doc := &container{
		Version:   containerVersion,
		NumLines:  numLines,
		NumPixels: s.NumPixels(),
		Latitude:  block.Latitude,
		Longitude: block.Longitude,
		Time:      block.Time,
		Variables: map[string][][]float64{},
	}

	for _, name := range s.Variables() {
		if name == VariableLatitude || name == VariableLongitude {
			continue
		}
		values, err := s.Variable(name, 0, numLines)
		if err != nil {
			return errors.Wrapf(err, "Unable to read variable %s", name)
		}
		doc.Variables[name] = values
	}

	if memorySwath, ok := s.(*MemorySwath); ok {
		doc.Attributes = memorySwath.Attributes
	}

	return util.EncodeCompressed(writer, doc)
}
