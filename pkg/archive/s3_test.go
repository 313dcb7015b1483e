package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olafkfreund/comunicado-sub006/pkg/mock"
)

type fakeUploader struct {
	s3manageriface.UploaderAPI
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)] = string(data)
	return &s3manager.UploadOutput{Location: aws.StringValue(in.Key)}, nil
}

func TestUploadDir(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"new", "cur", "tmp"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "acct", "INBOX", sub), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acct", "INBOX", "new", "1.a.host"), []byte("one"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acct", "INBOX", "cur", "2.b.host:2,S"), []byte("two!"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acct", "INBOX", "tmp", "3.c.host"), []byte("partial"), 0o600))

	fake := &fakeUploader{objects: map[string]string{}}
	u := NewWithClient(fake, "mail", "/backups/", mock.SetupLogger(t))

	stats, err := u.UploadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, int64(7), stats.Bytes)
	assert.Equal(t, map[string]string{
		"mail/backups/acct/INBOX/new/1.a.host":     "one",
		"mail/backups/acct/INBOX/cur/2.b.host:2,S": "two!",
	}, fake.objects)
}

func TestUploadDirCancelled(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "msg"), []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	u := NewWithClient(&fakeUploader{objects: map[string]string{}}, "mail", "", mock.SetupLogger(t))
	_, err := u.UploadDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{}, mock.SetupLogger(t))
	assert.Error(t, err)
}
