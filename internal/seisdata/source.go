package seisdata

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/GeoNet/kit/aws/s3"
	"github.com/pkg/errors"
)

// Source returns named objects holding waveform data.  The empty name is the
// location of the Source itself, for multiplexed data.
type Source interface {
	Get(name string) ([]byte, error)
}

// Dir is a Source for a local directory or file.
type Dir string

func (d Dir) Get(name string) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(string(d), name))
	switch {
	case os.IsNotExist(err):
		return nil, errors.Wrap(ErrNoData, err.Error())
	case err != nil:
		return nil, err
	}

	return b, nil
}

// Bucket is a Source for objects in S3 under a key prefix.
type Bucket struct {
	client       *s3.S3
	Name, Prefix string
}

// NewBucket returns a Bucket using the AWS default credential chain.
// AWS_REGION must be set.
func NewBucket(name, prefix string) (*Bucket, error) {
	c, err := s3.NewWithMaxRetries(3)
	if err != nil {
		return nil, errors.Wrap(err, "creating S3 client")
	}

	return &Bucket{client: &c, Name: name, Prefix: prefix}, nil
}

func (b *Bucket) Get(name string) ([]byte, error) {
	var buf bytes.Buffer

	k := b.Prefix
	if name != "" {
		k = path.Join(b.Prefix, name)
	}

	if err := b.client.Get(b.Name, k, "", &buf); err != nil {
		return nil, errors.Wrapf(err, "s3://%s/%s", b.Name, k)
	}

	return buf.Bytes(), nil
}

// Open returns the Source for location, either a local path or s3://bucket/prefix.
// multiplexed is true if location is a single object rather than a directory
// of per channel files.
func Open(location string) (src Source, multiplexed bool, err error) {
	if strings.HasPrefix(location, "s3://") {
		p := strings.SplitN(strings.TrimPrefix(location, "s3://"), "/", 2)
		if p[0] == "" {
			return nil, false, errors.Errorf("no bucket in %s", location)
		}

		var prefix string
		if len(p) == 2 {
			prefix = p[1]
		}

		b, err := NewBucket(p[0], strings.TrimSuffix(prefix, "/"))
		if err != nil {
			return nil, false, err
		}

		return b, prefix != "" && !strings.HasSuffix(prefix, "/") && path.Ext(prefix) != "", nil
	}

	fi, err := os.Stat(location)
	if err != nil {
		return nil, false, errors.Wrap(err, "data location")
	}

	return Dir(location), !fi.IsDir(), nil
}
