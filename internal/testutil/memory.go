package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/sync-dir-s3/internal/s3api"
)

// StoredObject is an object held by MemoryS3.
type StoredObject struct {
	Body        []byte
	ContentType string
	ACL         types.ObjectCannedACL
	SSE         types.ServerSideEncryption
	Metadata    map[string]string
}

// MemoryS3 is an in-memory S3API with failure injection and concurrency accounting.
type MemoryS3 struct {
	// HeadErr, when set, is consulted before every HeadObject call.
	HeadErr func(key string) error

	// PutErr, when set, is consulted after the body is read on every PutObject call.
	PutErr func(key string) error

	// PutDelay holds each PutObject call open for the given duration.
	PutDelay time.Duration

	mu       sync.Mutex
	objects  map[string]StoredObject
	putKeys  []string
	headKeys []string

	inFlight    int64
	maxInFlight int64
}

var _ s3api.S3API = (*MemoryS3)(nil)

// NewMemoryS3 creates an empty store.
func NewMemoryS3() *MemoryS3 {
	return &MemoryS3{objects: make(map[string]StoredObject)}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

// Seed stores an object directly without recording a put.
func (m *MemoryS3) Seed(bucket, key string, body []byte, metadata map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, key)] = StoredObject{Body: body, Metadata: metadata}
}

// Object returns a stored object.
func (m *MemoryS3) Object(bucket, key string) (StoredObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[objectID(bucket, key)]
	return obj, ok
}

// PutKeys returns the keys passed to PutObject, sorted.
func (m *MemoryS3) PutKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := append([]string(nil), m.putKeys...)
	sort.Strings(keys)
	return keys
}

// HeadCount returns the number of HeadObject calls.
func (m *MemoryS3) HeadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.headKeys)
}

// MaxInFlight returns the highest number of concurrent PutObject calls observed.
func (m *MemoryS3) MaxInFlight() int {
	return int(atomic.LoadInt64(&m.maxInFlight))
}

// HeadObject implements S3API.
func (m *MemoryS3) HeadObject(
	ctx context.Context,
	params *s3.HeadObjectInput,
	_ ...func(*s3.Options),
) (*s3.HeadObjectOutput, error) {
	key := aws.ToString(params.Key)

	m.mu.Lock()
	m.headKeys = append(m.headKeys, key)
	m.mu.Unlock()

	if m.HeadErr != nil {
		if err := m.HeadErr(key); err != nil {
			return nil, err
		}
	}

	obj, ok := m.Object(aws.ToString(params.Bucket), key)
	if !ok {
		return nil, &types.NotFound{Message: aws.String("Not Found")}
	}

	md := make(map[string]string, len(obj.Metadata))
	for k, v := range obj.Metadata {
		md[k] = v
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.Body))),
		ContentType:   aws.String(obj.ContentType),
		Metadata:      md,
	}, nil
}

// PutObject implements S3API.
func (m *MemoryS3) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	_ ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	current := atomic.AddInt64(&m.inFlight, 1)
	defer atomic.AddInt64(&m.inFlight, -1)
	for {
		observed := atomic.LoadInt64(&m.maxInFlight)
		if current <= observed || atomic.CompareAndSwapInt64(&m.maxInFlight, observed, current) {
			break
		}
	}

	key := aws.ToString(params.Key)
	m.mu.Lock()
	m.putKeys = append(m.putKeys, key)
	m.mu.Unlock()

	if m.PutDelay > 0 {
		select {
		case <-time.After(m.PutDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var body []byte
	if params.Body != nil {
		var err error
		body, err = io.ReadAll(params.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}

	if m.PutErr != nil {
		if err := m.PutErr(key); err != nil {
			return nil, err
		}
	}

	md := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		md[k] = v
	}

	m.mu.Lock()
	m.objects[objectID(aws.ToString(params.Bucket), key)] = StoredObject{
		Body:        body,
		ContentType: aws.ToString(params.ContentType),
		ACL:         params.ACL,
		SSE:         params.ServerSideEncryption,
		Metadata:    md,
	}
	m.mu.Unlock()

	return &s3.PutObjectOutput{ETag: aws.String(fmt.Sprintf("\"%d\"", len(body)))}, nil
}
