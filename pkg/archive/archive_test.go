package archive

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/config"
)

func TestNew_DisabledWithoutBucket(t *testing.T) {
	a, err := New(context.Background(), &config.ArchiveConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, a.Enabled())
	assert.NoError(t, a.Put(context.Background(), "k", "text/plain", []byte("x")))

	_, err = a.Get(context.Background(), "k")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestImportKey(t *testing.T) {
	now := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		filename string
		suffix   string
	}{
		{"resume.pdf", "/resume.pdf"},
		{"周宇 简历.docx", "/周宇_简历.docx"},
		{`C:\Users\me\cv.doc`, "/cv.doc"},
		{"../../etc/passwd", "/passwd"},
		{"...", "/upload"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			key := ImportKey(now, tt.filename)
			assert.True(t, strings.HasPrefix(key, "imports/2025/03/"), key)
			assert.True(t, strings.HasSuffix(key, tt.suffix), key)
			assert.Len(t, strings.Split(key, "/"), 5)
		})
	}
}

// fakeS3 answers path-style PutObject and GetObject requests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = string(body)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		_, _ = io.WriteString(w, body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Archive_PutGet(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	a, err := New(context.Background(), &config.ArchiveConfig{
		Bucket:    "gradpath",
		Endpoint:  srv.URL,
		Region:    "auto",
		AccessKey: "test",
		SecretKey: "test",
	}, zap.NewNop())
	require.NoError(t, err)
	require.True(t, a.Enabled())

	ctx := context.Background()
	require.NoError(t, a.Put(ctx, "imports/2025/03/x/cv.txt", "text/plain", []byte("GPA 3.9")))

	fake.mu.Lock()
	stored, ok := fake.objects["/gradpath/imports/2025/03/x/cv.txt"]
	fake.mu.Unlock()
	require.True(t, ok, "object should be written path-style under the bucket")
	assert.Contains(t, stored, "GPA 3.9")

	data, err := a.Get(ctx, "imports/2025/03/x/cv.txt")
	require.NoError(t, err)
	assert.Contains(t, string(data), "GPA 3.9")

	_, err = a.Get(ctx, "imports/missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
