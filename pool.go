package imgframe

import (
	"slices"
	"sync"
)

// Pool is a thread-safe pool for reusing Frame buffers.
//
// Pool groups frames by data type, size and depth, so a frame taken from a
// bucket never needs reallocation. This keeps allocation under control for
// pipelines that repeatedly ingest frames of the same geometry.
//
// Thread safety: all Pool methods are safe for concurrent use. The frames
// handed out are not.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*Frame
	maxSize int // max frames per bucket
}

// poolKey identifies a bucket of identical frame layouts.
type poolKey struct {
	dataType DataType
	size     Size
	depth    uint
}

// NewPool creates a frame pool retaining at most maxPerBucket frames per
// layout. A maxPerBucket of 0 or less means unlimited.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*Frame),
		maxSize: maxPerBucket,
	}
}

// Get returns a frame with the requested layout and zeroed pixels, reusing a
// pooled frame when one is available.
func (p *Pool) Get(t DataType, size Size, depth uint) (*Frame, error) {
	key := poolKey{dataType: t, size: size, depth: depth}

	p.mu.Lock()
	bucket := p.buckets[key]
	if len(bucket) > 0 {
		f := bucket[len(bucket)-1]
		bucket[len(bucket)-1] = nil
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		clear(f.data)
		return f, nil
	}
	p.mu.Unlock()

	return NewFrame(t, size, depth)
}

// Put returns f to the pool. Empty frames are dropped, as are frames whose
// bucket is full and frames already held by the pool. The caller must not
// use f afterwards.
func (p *Pool) Put(f *Frame) {
	if f == nil || f.IsEmpty() {
		return
	}
	key := poolKey{dataType: f.dataType, size: f.size, depth: f.depth}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if slices.Contains(bucket, f) {
		slogger().Debug("imgframe: frame already pooled", "frame", f.String())
		return
	}
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		slogger().Debug("imgframe: pool bucket full, dropping frame", "frame", f.String())
		return
	}
	p.buckets[key] = append(bucket, f)
}

// Len returns the number of frames currently held by the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}

// defaultPool is the package-level pool.
var defaultPool = NewPool(8)

// GetFromDefault retrieves a frame from the default pool.
func GetFromDefault(t DataType, size Size, depth uint) (*Frame, error) {
	return defaultPool.Get(t, size, depth)
}

// PutToDefault returns a frame to the default pool.
func PutToDefault(f *Frame) {
	defaultPool.Put(f)
}
