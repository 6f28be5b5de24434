package loader

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	lastInput *s3.GetObjectInput
	body      string
	length    *int64
	err       error
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body)), ContentLength: f.length}, nil
}

func TestParseS3Locator(t *testing.T) {
	tests := []struct {
		in         string
		bucket     string
		key        string
		wantErrMsg string
	}{
		{in: "s3://decks/ws/deck.pdf", bucket: "decks", key: "ws/deck.pdf"},
		{in: "s3://decks/", wantErrMsg: "missing key"},
		{in: "https://decks/x", wantErrMsg: "invalid s3 locator"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, k, err := parseS3Locator(tt.in)
			if tt.wantErrMsg != "" {
				require.ErrorContains(t, err, tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, b)
			assert.Equal(t, tt.key, k)
		})
	}
}

func TestS3Source_Open(t *testing.T) {
	f := &fakeS3{body: "%PDF-1.7", length: aws.Int64(8)}
	src := &S3Source{client: f}

	var readings []int
	state, err := New(Mux{"s3": src}).Load(context.Background(), "s3://decks/a/b.pdf", func(p Progress) {
		readings = append(readings, p.Percent)
	})

	require.NoError(t, err)
	assert.Equal(t, "decks", aws.ToString(f.lastInput.Bucket))
	assert.Equal(t, "a/b.pdf", aws.ToString(f.lastInput.Key))
	assert.Equal(t, []byte("%PDF-1.7"), state.Blob)
	assert.Equal(t, 100, readings[len(readings)-1])
}

func TestS3Source_UnknownLength(t *testing.T) {
	src := &S3Source{client: &fakeS3{body: "abc"}}

	_, total, err := src.Open(context.Background(), "s3://decks/x")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), total)
}

func TestS3Source_GetObjectError(t *testing.T) {
	src := &S3Source{client: &fakeS3{err: errors.New("NoSuchKey")}}

	_, _, err := src.Open(context.Background(), "s3://decks/x")
	require.ErrorContains(t, err, "NoSuchKey")
}
