package archive

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3Archiver_Archive(t *testing.T) {
	client := &fakeS3{}
	a := newS3Archiver(client, "imports", "import-logs/")
	a.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := a.Archive(context.Background(), "contacts/20240102T030405Z_s1.csv", []byte("Row,Email,Message\n"), "text/csv")
	require.NoError(t, err)

	assert.Equal(t, "imports", aws.ToString(client.input.Bucket))
	assert.Equal(t, "import-logs/contacts/20240102T030405Z_s1.csv", aws.ToString(client.input.Key))
	assert.Equal(t, "text/csv", aws.ToString(client.input.ContentType))
	assert.Equal(t, "2024-01-02T03:04:05Z", client.input.Metadata["archived_at"])
	assert.Equal(t, "Row,Email,Message\n", string(client.body))
}

func TestS3Archiver_EmptyPrefix(t *testing.T) {
	client := &fakeS3{}
	a := newS3Archiver(client, "imports", "")

	require.NoError(t, a.Archive(context.Background(), "wardrobe/x.csv", nil, "text/csv"))
	assert.Equal(t, "wardrobe/x.csv", aws.ToString(client.input.Key))
}

func TestS3Archiver_Error(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}
	a := newS3Archiver(client, "imports", "logs")

	err := a.Archive(context.Background(), "alumnae/x.csv", []byte("x"), "text/csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logs/alumnae/x.csv")
}
