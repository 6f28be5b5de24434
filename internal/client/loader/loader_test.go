package loader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/dmitrijs2005/deckviewer/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkReader returns one chunk per Read call, then err (io.EOF if nil).
type chunkReader struct {
	chunks [][]byte
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error { return nil }

type fakeSource struct {
	body    io.ReadCloser
	total   int64
	openErr error

	lastLocator string
}

func (f *fakeSource) Open(ctx context.Context, locator string) (io.ReadCloser, int64, error) {
	f.lastLocator = locator
	if f.openErr != nil {
		return nil, 0, f.openErr
	}
	return f.body, f.total, nil
}

func split(data []byte, parts int) [][]byte {
	size := len(data) / parts
	out := make([][]byte, 0, parts)
	for i := 0; i < parts; i++ {
		out = append(out, data[i*size:(i+1)*size])
	}
	return out
}

func TestLoad_FourEqualChunks(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 1_000_000)
	src := &fakeSource{body: &chunkReader{chunks: split(data, 4)}, total: int64(len(data))}

	var readings []int
	state, err := New(src).Load(context.Background(), "https://cdn/deck.pdf", func(p Progress) {
		readings = append(readings, p.Percent)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{25, 50, 75, 100}, readings)
	assert.Equal(t, data, state.Blob)
	assert.Equal(t, int64(1_000_000), state.Received)
	assert.False(t, state.Failed)
	assert.Equal(t, "https://cdn/deck.pdf", src.lastLocator)
}

func TestLoad_PercentNonDecreasingWithSmallBuffer(t *testing.T) {
	data := make([]byte, 10_007)
	for i := range data {
		data[i] = byte(i)
	}
	src := &fakeSource{body: io.NopCloser(bytes.NewReader(data)), total: int64(len(data))}

	var readings []int
	state, err := New(src, WithChunkSize(333)).Load(context.Background(), "x", func(p Progress) {
		readings = append(readings, p.Percent)
	})

	require.NoError(t, err)
	require.NotEmpty(t, readings)
	for i := 1; i < len(readings); i++ {
		assert.GreaterOrEqual(t, readings[i], readings[i-1])
	}
	assert.Equal(t, 100, readings[len(readings)-1])
	assert.Equal(t, data, state.Blob)
}

func TestLoad_UnknownTotalStaysAtZeroUntilDone(t *testing.T) {
	src := &fakeSource{body: &chunkReader{chunks: [][]byte{[]byte("ab"), []byte("cd")}}, total: -1}

	var readings []Progress
	state, err := New(src).Load(context.Background(), "x", func(p Progress) {
		readings = append(readings, p)
	})

	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, 0, readings[0].Percent)
	assert.Equal(t, 0, readings[1].Percent)
	assert.False(t, readings[1].Known())
	assert.Equal(t, 100, readings[2].Percent)
	assert.Equal(t, []byte("abcd"), state.Blob)
}

func TestLoad_ReadFailureStopsProgress(t *testing.T) {
	boom := errors.New("connection reset")
	src := &fakeSource{body: &chunkReader{chunks: [][]byte{[]byte("abcd")}, err: boom}, total: 8}

	var readings []int
	state, err := New(src).Load(context.Background(), "x", func(p Progress) {
		readings = append(readings, p.Percent)
	})

	require.ErrorIs(t, err, common.ErrNetwork)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, "Error downloading document. Please try again later.", common.Message(err, ""))
	assert.Equal(t, []int{50}, readings)
	assert.True(t, state.Failed)
	assert.Nil(t, state.Blob)
}

func TestLoad_OpenFailure(t *testing.T) {
	src := &fakeSource{openErr: errors.New("dns")}

	called := false
	state, err := New(src).Load(context.Background(), "x", func(Progress) { called = true })

	require.ErrorIs(t, err, common.ErrNetwork)
	assert.True(t, state.Failed)
	assert.False(t, called)
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, 0, percentOf(10, 0))
	assert.Equal(t, 0, percentOf(10, -1))
	assert.Equal(t, 0, percentOf(0, 100))
	assert.Equal(t, 33, percentOf(1, 3))
	assert.Equal(t, 67, percentOf(2, 3))
	assert.Equal(t, 100, percentOf(150, 100))
}

func TestPreallocSize(t *testing.T) {
	assert.Equal(t, 0, preallocSize(-1))
	assert.Equal(t, 0, preallocSize(0))
	assert.Equal(t, 1000, preallocSize(1000))
	assert.Equal(t, maxPrealloc, preallocSize(maxPrealloc))
	assert.Equal(t, maxPrealloc, preallocSize(1<<40))
}

func TestLoad_OversizedDeclaredLength(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)
	src := &fakeSource{body: &chunkReader{chunks: [][]byte{data}}, total: 1 << 40}

	state, err := New(src).Load(context.Background(), "https://cdn/deck.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, data, state.Blob)
	assert.LessOrEqual(t, cap(state.Blob), maxPrealloc)
}

func TestHTTPSource_ThroughMux(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	l := New(Mux{"http": &HTTPSource{Client: srv.Client()}})

	var last Progress
	state, err := l.Load(context.Background(), srv.URL+"/deck.pdf", func(p Progress) { last = p })
	require.NoError(t, err)
	assert.Equal(t, data, state.Blob)
	assert.Equal(t, int64(len(data)), state.Total)
	assert.Equal(t, 100, last.Percent)

	_, err = l.Load(context.Background(), srv.URL+"/missing.pdf", nil)
	require.ErrorIs(t, err, common.ErrNetwork)

	_, err = l.Load(context.Background(), "ftp://host/deck.pdf", nil)
	require.ErrorIs(t, err, common.ErrNetwork)
}
