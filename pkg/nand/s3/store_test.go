package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ssdsim/pkg/nand"
	"github.com/marmos91/ssdsim/pkg/nand/storetest"
)

// fakeS3 is an in-memory stand-in for the object API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	if in.Range != nil {
		var start, end int
		if _, err := fmt.Sscanf(*in.Range, "bytes=%d-%d", &start, &end); err != nil {
			return nil, err
		}
		if start >= len(obj) {
			return nil, errors.New("api error InvalidRange: 416 requested range not satisfiable")
		}
		obj = obj[start:min(end+1, len(obj))]
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(bytes.Clone(obj)))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(obj)))}, nil
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T, geom nand.Geometry) nand.Store {
		s, err := New(newFakeS3(), Config{Bucket: "nand", KeyPrefix: "ssd/"}, geom)
		require.NoError(t, err)
		return s
	})
}

func TestStore_ObjectLayout(t *testing.T) {
	fake := newFakeS3()
	geom := storetest.Geometry()
	s, err := New(fake, Config{Bucket: "nand", KeyPrefix: "ssd/"}, geom)
	require.NoError(t, err)
	require.NoError(t, s.Provision(t.Context()))

	assert.Len(t, fake.objects, geom.PhysicalBlocks)
	assert.Empty(t, fake.objects["ssd/nand_0"])

	data := storetest.Pattern(geom.PageSize, 3)
	require.NoError(t, s.WritePage(t.Context(), 1, 2, data))

	obj := fake.objects["ssd/nand_1"]
	require.Len(t, obj, geom.BlockSize())
	assert.Equal(t, data, obj[2*geom.PageSize:3*geom.PageSize])

	require.NoError(t, s.EraseBlock(t.Context(), 1))
	assert.Empty(t, fake.objects["ssd/nand_1"])
}

func TestStore_MissingObjectUnavailable(t *testing.T) {
	fake := newFakeS3()
	geom := storetest.Geometry()
	s, err := New(fake, Config{Bucket: "nand"}, geom)
	require.NoError(t, err)
	require.NoError(t, s.Provision(t.Context()))

	delete(fake.objects, "nand_2")

	buf := make([]byte, geom.PageSize)
	assert.True(t, errors.Is(s.ReadPage(t.Context(), 2, 0, buf), nand.ErrBlockUnavailable))
	assert.True(t, errors.Is(s.WritePage(t.Context(), 2, 0, buf), nand.ErrBlockUnavailable))
	assert.True(t, errors.Is(s.EraseBlock(t.Context(), 2), nand.ErrBlockUnavailable))
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(newFakeS3(), Config{}, storetest.Geometry())
	assert.Error(t, err)
}
