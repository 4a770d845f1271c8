package resolvers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHeaders struct{ applied int }

func (s *stubHeaders) Apply(req *http.Request, _ string) {
	s.applied++
	req.Header.Set("User-Agent", "test-agent")
}

func newOpenGraphServer(t *testing.T, page string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestOpenGraphResolver_CanResolve(t *testing.T) {
	r := NewOpenGraphResolver([]string{" WWW.Streamable.com ", ""}, http.DefaultClient, nil)

	assert.True(t, r.CanResolve("https://streamable.com/abc"))
	assert.True(t, r.CanResolve("https://www.streamable.com/abc"))
	assert.False(t, r.CanResolve("https://cdn.example.com/abc"))
	assert.False(t, r.CanResolve("https://streamable.com/abc.mp4"))
}

func TestOpenGraphResolver_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		head     string
		expected string
	}{
		{
			name:     "secure url wins",
			head:     `<meta property="og:video" content="http://cdn.example/plain.mp4"><meta property="og:video:secure_url" content="https://cdn.example/secure.mp4">`,
			expected: "https://cdn.example/secure.mp4",
		},
		{
			name:     "plain og video",
			head:     `<meta property="og:video" content="https://cdn.example/plain.mp4">`,
			expected: "https://cdn.example/plain.mp4",
		},
		{
			name:     "twitter stream by name",
			head:     `<meta name="twitter:player:stream" content="https://cdn.example/tw.mp4">`,
			expected: "https://cdn.example/tw.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newOpenGraphServer(t, "<html><head>"+tt.head+"</head><body></body></html>")
			headers := &stubHeaders{}
			r := NewOpenGraphResolver([]string{"127.0.0.1"}, server.Client(), headers)

			require.True(t, r.CanResolve(server.URL+"/watch"))
			got, err := r.Resolve(context.Background(), server.URL+"/watch")

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, 1, headers.applied)
		})
	}
}

func TestOpenGraphResolver_RelativeURL(t *testing.T) {
	server := newOpenGraphServer(t, `<html><head><meta property="og:video:url" content="/media/clip.mp4"></head></html>`)
	r := NewOpenGraphResolver([]string{"127.0.0.1"}, server.Client(), &stubHeaders{})

	got, err := r.Resolve(context.Background(), server.URL+"/watch")

	require.NoError(t, err)
	assert.Equal(t, server.URL+"/media/clip.mp4", got)
}

func TestOpenGraphResolver_Failures(t *testing.T) {
	server := newOpenGraphServer(t, `<html><head><title>no video</title></head></html>`)
	r := NewOpenGraphResolver([]string{"127.0.0.1"}, server.Client(), &stubHeaders{})

	_, err := r.Resolve(context.Background(), server.URL+"/watch")
	assert.Error(t, err)

	_, err = r.Resolve(context.Background(), server.URL+"/missing")
	assert.Error(t, err)

	// without headers the server refuses
	bare := NewOpenGraphResolver([]string{"127.0.0.1"}, server.Client(), nil)
	_, err = bare.Resolve(context.Background(), server.URL+"/watch")
	assert.Error(t, err)
}
