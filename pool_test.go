package imgframe

import (
	"sync"
	"testing"
	"unsafe"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name         string
		maxPerBucket int
		wantMaxSize  int
	}{
		{
			name:         "zero means unlimited",
			maxPerBucket: 0,
			wantMaxSize:  0,
		},
		{
			name:         "positive limit",
			maxPerBucket: 5,
			wantMaxSize:  5,
		},
		{
			name:         "negative means unlimited (edge case)",
			maxPerBucket: -1,
			wantMaxSize:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewPool(tt.maxPerBucket)
			if pool == nil {
				t.Fatal("NewPool returned nil")
			}
			if pool.maxSize != tt.wantMaxSize {
				t.Errorf("maxSize = %d, want %d", pool.maxSize, tt.wantMaxSize)
			}
			if pool.buckets == nil {
				t.Error("buckets map is nil")
			}
		})
	}
}

func TestPool_GetPut_Basic(t *testing.T) {
	pool := NewPool(4)

	f1, err := pool.Get(UChar, Sz(100, 100), 4)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if f1.Size() != Sz(100, 100) || f1.Depth() != 4 || f1.DataType() != UChar {
		t.Fatalf("Get() = %v", f1)
	}

	f1.Bytes()[0] = 255
	data := unsafe.SliceData(f1.Bytes())
	pool.Put(f1)

	f2, err := pool.Get(UChar, Sz(100, 100), 4)
	if err != nil {
		t.Fatalf("Get() after Put = %v", err)
	}
	if unsafe.SliceData(f2.Bytes()) != data {
		t.Error("pooled frame was not reused")
	}
	if f2.Bytes()[0] != 0 {
		t.Error("reused frame was not cleared")
	}
}

func TestPool_SeparateBuckets(t *testing.T) {
	pool := NewPool(4)

	a, _ := pool.Get(UChar, Sz(8, 8), 1)
	pool.Put(a)

	// Same byte count, different layout: must not share a bucket.
	b, err := pool.Get(UShort, Sz(4, 8), 1)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if b == a {
		t.Error("frame reused across different layouts")
	}
	if pool.Len() != 1 {
		t.Errorf("Len() = %d, want 1", pool.Len())
	}
}

func TestPool_MaxSize(t *testing.T) {
	pool := NewPool(2)
	for range 5 {
		f, err := NewFrame(Float, Sz(3, 3), 1)
		if err != nil {
			t.Fatalf("NewFrame() = %v", err)
		}
		pool.Put(f)
	}
	if pool.Len() != 2 {
		t.Errorf("Len() = %d, want 2", pool.Len())
	}
}

func TestPool_PutIgnoresEmpty(t *testing.T) {
	pool := NewPool(0)
	pool.Put(nil)
	pool.Put(&Frame{})
	if pool.Len() != 0 {
		t.Errorf("Len() = %d, want 0", pool.Len())
	}
}

func TestPool_PutTwice(t *testing.T) {
	pool := NewPool(0)
	f, err := pool.Get(UChar, Sz(4, 4), 1)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	pool.Put(f)
	pool.Put(f)
	if pool.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", pool.Len())
	}

	a, _ := pool.Get(UChar, Sz(4, 4), 1)
	b, err := pool.Get(UChar, Sz(4, 4), 1)
	if err != nil {
		t.Fatalf("Get() = %v", err)
	}
	if a == b {
		t.Error("two Get calls returned the same frame")
	}
}

func TestPool_InvalidLayout(t *testing.T) {
	pool := NewPool(1)
	if _, err := pool.Get(Undefined, Sz(1, 1), 1); err == nil {
		t.Error("Get(Undefined) succeeded")
	}
}

func TestPool_Concurrent(t *testing.T) {
	pool := NewPool(16)
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				f, err := pool.Get(UChar, Sz(16, 16), 3)
				if err != nil {
					t.Error(err)
					return
				}
				f.Bytes()[0] = 1
				pool.Put(f)
			}
		}()
	}
	wg.Wait()
	if pool.Len() > 16 {
		t.Errorf("Len() = %d exceeds bucket limit", pool.Len())
	}
}

func TestDefaultPool(t *testing.T) {
	f, err := GetFromDefault(Short, Sz(2, 2), 1)
	if err != nil {
		t.Fatalf("GetFromDefault() = %v", err)
	}
	PutToDefault(f)
}
