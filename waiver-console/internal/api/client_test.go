package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"})
}

func TestAsk_SendsQueryAndFilters(t *testing.T) {
	year := 2021
	var got map[string]any
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ask/", r.URL.Path)
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"answer": "42", "sources": [{"rank": 1, "path": "a.pdf", "page": 3, "score": 0.91}], "graph": []}`)
	})

	ctx := WithRequestID(context.Background(), "req-1")
	res, err := c.Ask(ctx, "which waivers?", Filters{Year: &year, State: "CA"})

	require.NoError(t, err)
	assert.Equal(t, "which waivers?", got["query"])
	assert.Equal(t, map[string]any{"year": float64(2021), "state": "CA"}, got["filters"])
	assert.Equal(t, "42", res.Answer)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "a.pdf", res.Sources[0].Path)
	require.NotNil(t, res.Sources[0].Page)
	assert.Equal(t, 3, *res.Sources[0].Page)
	assert.JSONEq(t, `[]`, string(res.Graph))
}

func TestAsk_OmitsEmptyFilters(t *testing.T) {
	var got map[string]any
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"answer": "nothing indexed yet"}`)
	})

	res, err := c.Ask(context.Background(), "q", Filters{})

	require.NoError(t, err)
	assert.NotContains(t, got, "filters")
	assert.Equal(t, "nothing indexed yet", res.Answer)
	assert.NotNil(t, res.Sources)
}

func TestAsk_MissingAnswerIsMalformed(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"sources": []}`)
	})

	_, err := c.Ask(context.Background(), "q", Filters{})

	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAsk_NonJSONIsMalformed(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>oops</html>`)
	})

	_, err := c.Ask(context.Background(), "q", Filters{})

	assert.ErrorIs(t, err, ErrMalformed)
}

func TestAsk_StatusError(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pipeline exploded", http.StatusInternalServerError)
	})

	_, err := c.Ask(context.Background(), "q", Filters{})

	require.ErrorIs(t, err, ErrStatus)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "pipeline exploded", se.Body)
}

func TestAsk_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := New(Config{BaseURL: url})

	_, err := c.Ask(context.Background(), "q", Filters{})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestAsk_RejectsInvalidFilters(t *testing.T) {
	year := 12
	called := false
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.Ask(context.Background(), "q", Filters{Year: &year})

	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.False(t, called)
}

func TestExplain_StepSequence(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/explain/", r.URL.Path)
		io.WriteString(w, `{"plan": ["embed query", {"op": "vector_search", "k": 6}]}`)
	})

	plan, err := c.Explain(context.Background(), "q", Filters{})

	require.NoError(t, err)
	require.True(t, plan.IsSequence())
	assert.Equal(t, []string{"embed query", `{"op":"vector_search","k":6}`}, plan.Steps)
}

func TestDecodePlan(t *testing.T) {
	plan, err := decodePlan([]byte(`{"execution_plan": {"cypher": "MATCH (n) RETURN n"}, "is_safe": true}`))
	require.NoError(t, err)
	assert.False(t, plan.IsSequence())
	assert.JSONEq(t, `{"cypher": "MATCH (n) RETURN n"}`, string(plan.Raw))
	assert.Contains(t, plan.Pretty(), "\n  \"cypher\"")

	plan, err = decodePlan([]byte(`{"stage": "retrieve"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage": "retrieve"}`, string(plan.Raw))

	plan, err = decodePlan([]byte(`{"plan": null, "execution_plan": ["match", {"limit": 5}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"match", `{"limit":5}`}, plan.Steps)

	_, err = decodePlan([]byte(`{"plan": null}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = decodePlan([]byte(`{"plan": null, "execution_plan": null}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = decodePlan([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformed)
}

type memoryCache struct {
	mu   sync.Mutex
	data []byte
	sets int
}

func (m *memoryCache) Get(context.Context) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data, m.data != nil
}

func (m *memoryCache) Set(_ context.Context, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = payload
	m.sets++
}

func TestDocuments_CacheAside(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/api/documents/", r.URL.Path)
		io.WriteString(w, `[{"id": 1, "file": "uploads/CA 0431.pdf", "state": "CA", "program_title": "HCBS", "application_number": "CA.0431"}]`)
	}))
	defer srv.Close()
	cache := &memoryCache{}
	c := New(Config{BaseURL: srv.URL, Documents: cache})

	first, err := c.Documents(context.Background())
	require.NoError(t, err)
	second, err := c.Documents(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, first, second)
	require.Len(t, first, 1)
	assert.Equal(t, "CA.0431", first[0].ApplicationNumber)
	assert.Equal(t, srv.URL+"/media/uploads/CA%200431.pdf", c.PreviewURL(first[0]))
}

func TestUpload_SendsMultipartAndReadsMetadata(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/upload/", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "waiver.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.4 body", string(data))
		io.WriteString(w, `{"filename": "waiver.pdf", "size": 13, "content_type": "application/pdf", "state": "OH"}`)
	})

	meta, err := c.Upload(context.Background(), "/tmp/in/waiver.pdf", strings.NewReader("%PDF-1.4 body"))

	require.NoError(t, err)
	assert.Equal(t, "waiver.pdf", meta.Filename)
	assert.Equal(t, int64(13), meta.Size)
	assert.Equal(t, "application/pdf", meta.ContentType)
	assert.Equal(t, "OH", meta.Fields["state"])
}
