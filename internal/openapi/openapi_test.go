package openapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantumnous/docsite/internal/content"
	"github.com/quantumnous/docsite/internal/models"
)

const managementSchema = `{
  "openapi": "3.0.1",
  "info": {"title": "Management API", "version": "1.0"},
  "paths": {
    "/api/user/login": {
      "post": {"summary": "Login", "tags": ["User"], "description": "<p>Logs a user in.</p><p>Returns a {token}.</p>"}
    },
    "/api/about": {
      "get": {"summary": "About", "tags": ["系统"]}
    },
    "/api/user/{id}/": {
      "get": {"tags": ["User"]},
      "delete": {"summary": "Delete user", "tags": ["User"], "deprecated": true}
    },
    "/api/status": {
      "parameters": [],
      "get": {"operationId": "getStatus"}
    }
  }
}`

func TestParse_OperationsAreSorted(t *testing.T) {
	doc, err := Parse([]byte(managementSchema))
	require.NoError(t, err)

	var got []string
	for _, op := range doc.Operations() {
		got = append(got, op.Method+" "+op.Path)
	}
	require.Equal(t, []string{
		"get /api/about",
		"get /api/status",
		"post /api/user/login",
		"get /api/user/{id}/",
		"delete /api/user/{id}/",
	}, got)
}

func TestParse_RejectsNonOpenAPI(t *testing.T) {
	_, err := Parse([]byte(`{"swagger": "2.0"}`))
	require.Error(t, err)

	_, err = Parse([]byte(`not json`))
	require.Error(t, err)
}

func TestNameByRoute(t *testing.T) {
	tests := []struct {
		path, method, want string
	}{
		{"/api/about", "get", "about-get"},
		{"/api/user/login", "post", "user-login-post"},
		{"/api/user/{id}/", "delete", "user-id-delete"},
		{"/api/channel/test/{id}//", "get", "channel-test-id-get"},
		{"/v1/chat/completions", "post", "v1-chat-completions-post"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, NameByRoute(OperationRef{Path: tt.path, Method: tt.method, Operation: &Operation{}}))
		})
	}
}

func TestNameByOperationID(t *testing.T) {
	op := func(id string) OperationRef {
		return OperationRef{Path: "/api/x", Method: "get", Operation: &Operation{OperationID: id}}
	}
	require.Equal(t, "get-user-by-id", NameByOperationID(op("getUserById")))
	require.Equal(t, "create-chat-completion", NameByOperationID(op("createChatCompletion")))
	require.Equal(t, "list-api-keys", NameByOperationID(op("listAPIKeys")))
	require.Equal(t, "x-get", NameByOperationID(op("")))
}

func TestSlugify(t *testing.T) {
	require.Equal(t, "user-management", Slugify("User Management"))
	require.Equal(t, "系统", Slugify("系统"))
	require.Equal(t, "audio", Slugify("  Audio!! "))
	require.Equal(t, "", Slugify("!!"))
}

func TestCleanDescription(t *testing.T) {
	require.Equal(t, "Logs a user in.\n\nReturns a \\{token\\}.", CleanDescription("<p>Logs a user in.</p><p>Returns a {token}.</p>"))
	require.Equal(t, "Line one\nLine two", CleanDescription("Line one  \nLine two\n\n\n"))
	require.Equal(t, "a &gt; b", CleanDescription("a > b"))
	require.Equal(t, "Logs a user in.", Summary("<p>Logs a user in.</p><p>More.</p>"))
	require.Equal(t, "", Summary("   "))
}

func TestGenerate_GroupsByTagAndNamesByRoute(t *testing.T) {
	doc, err := Parse([]byte(managementSchema))
	require.NoError(t, err)

	out := t.TempDir()
	files, err := Generate(doc, GenerateOptions{
		Output:              out,
		DocumentRef:         "./openapi/api.json",
		GroupByTag:          true,
		IncludeDescription:  true,
		AddGeneratedComment: true,
		Naming:              NameByRoute,
	})
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(out, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	require.Equal(t, []string{
		"系统/about-get.mdx",
		"untagged/status-get.mdx",
		"user/user-login-post.mdx",
		"user/user-id-get.mdx",
		"user/user-id-delete.mdx",
	}, rel)

	data, err := os.ReadFile(filepath.Join(out, "user", "user-login-post.mdx"))
	require.NoError(t, err)
	page := string(data)
	require.True(t, strings.HasPrefix(page, "---\ntitle: Login\n"))
	require.Contains(t, page, "description: Logs a user in.\n")
	require.Contains(t, page, "  method: post\n  route: /api/user/login\n")
	require.Contains(t, page, generatedComment)
	require.Contains(t, page, `<APIPage document={"./openapi/api.json"} operations={[{"path":"/api/user/login","method":"post"}]} webhooks={[]} hasHead={false} />`)

	// Generated pages are readable by the content source.
	fm, _, err := content.ParseFrontMatter(data)
	require.NoError(t, err)
	require.Equal(t, "Login", fm.Title)

	data, err = os.ReadFile(filepath.Join(out, "user", "user-id-get.mdx"))
	require.NoError(t, err)
	require.Contains(t, string(data), "title: GET /api/user/{id}/\n")
}

func TestGenerate_DeduplicatesNames(t *testing.T) {
	doc, err := Parse([]byte(`{"openapi":"3.0.0","paths":{
		"/a": {"get": {"operationId": "list"}},
		"/b": {"get": {"operationId": "list"}}
	}}`))
	require.NoError(t, err)

	out := t.TempDir()
	files, err := Generate(doc, GenerateOptions{Output: out})
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(out, "list.mdx"), filepath.Join(out, "list-2.mdx")}, files)

	doc, err = Parse([]byte(`{"openapi":"3.0.0","paths":{
		"/a": {"get": {"operationId": "foo"}},
		"/b": {"get": {"operationId": "foo"}},
		"/c": {"get": {"operationId": "foo-2"}},
		"/d": {"get": {"operationId": "bar-2"}},
		"/e": {"get": {"operationId": "bar"}},
		"/f": {"get": {"operationId": "bar"}}
	}}`))
	require.NoError(t, err)

	out = t.TempDir()
	files, err = Generate(doc, GenerateOptions{Output: out})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(out, "foo.mdx"),
		filepath.Join(out, "foo-2.mdx"),
		filepath.Join(out, "foo-2-2.mdx"),
		filepath.Join(out, "bar-2.mdx"),
		filepath.Join(out, "bar.mdx"),
		filepath.Join(out, "bar-3.mdx"),
	}, files)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, entries, len(files))
}

func TestFetcher_CanceledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(managementSchema))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher("", 0).Fetch(ctx, srv.URL+"/api.json")
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, hits.Load())

	data, err := NewFetcher("", 0).Fetch(context.Background(), srv.URL+"/api.json")
	require.NoError(t, err)
	require.Equal(t, managementSchema, string(data))
	require.Equal(t, int32(1), hits.Load())
}

func TestGenerate_Clean(t *testing.T) {
	out := t.TempDir()
	stale := filepath.Join(out, "stale.mdx")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	doc, err := Parse([]byte(managementSchema))
	require.NoError(t, err)
	_, err = Generate(doc, GenerateOptions{Output: out, Clean: true})
	require.NoError(t, err)

	_, err = os.Stat(stale)
	require.True(t, os.IsNotExist(err))
}

func TestRunner_RunAllFromHTTPAndFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/relay.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"openapi":"3.0.0","info":{"title":"Relay"},"paths":{"/v1/models":{"get":{"operationId":"listModels","tags":["Models"]}}}}`))
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "api.json")
	require.NoError(t, os.WriteFile(local, []byte(managementSchema), 0o644))

	out := t.TempDir()
	runner := NewRunner(NewFetcher("docsite-test", 0), t.TempDir(), nil)
	runs, err := runner.RunAll(context.Background(), []Spec{
		{Name: "AI Model", Input: srv.URL + "/relay.json", Output: filepath.Join(out, "ai-model"), GroupByTag: true},
		{Name: "Management", Input: local, Output: filepath.Join(out, "management"), Naming: NamingRoute, GroupByTag: true},
		{Name: "Missing", Input: srv.URL + "/missing.json", Output: filepath.Join(out, "missing")},
	})
	require.Error(t, err)
	require.Len(t, runs, 3)

	require.Equal(t, StatusCompleted, runs[0].Status)
	require.Equal(t, 1, runs[0].Files)
	_, statErr := os.Stat(filepath.Join(out, "ai-model", "models", "list-models.mdx"))
	require.NoError(t, statErr)

	require.Equal(t, StatusCompleted, runs[1].Status)
	require.Equal(t, 5, runs[1].Files)

	require.Equal(t, StatusError, runs[2].Status)
	require.NotEmpty(t, runs[2].Errors)
	require.NotNil(t, runs[2].FinishedAt)
}

func TestRunner_UnknownNaming(t *testing.T) {
	runner := NewRunner(NewFetcher("", 0), t.TempDir(), nil)
	runs, err := runner.RunAll(context.Background(), []Spec{{Name: "x", Input: "nope.json", Output: t.TempDir(), Naming: "weird"}})
	require.Error(t, err)
	require.Equal(t, StatusError, runs[0].Status)
}

func TestRunner_RejectsConcurrentRuns(t *testing.T) {
	runner := NewRunner(NewFetcher("", 0), t.TempDir(), nil)
	runner.mu.Lock()
	defer runner.mu.Unlock()

	_, err := runner.RunAll(context.Background(), nil)
	require.True(t, errors.Is(err, ErrRunInProgress))
}

func TestRunner_StartReportsAndRecordsRuns(t *testing.T) {
	local := filepath.Join(t.TempDir(), "api.json")
	require.NoError(t, os.WriteFile(local, []byte(managementSchema), 0o644))

	runner := NewRunner(NewFetcher("", 0), t.TempDir(), nil)
	done := make(chan error, 1)
	err := runner.Start([]Spec{{Name: "Management", Input: local, Output: t.TempDir(), Naming: NamingRoute}},
		func(_ []*models.GenerationRun, err error) { done <- err })
	require.NoError(t, err)
	require.NoError(t, <-done)

	last := runner.LastRuns()
	require.Len(t, last, 1)
	require.Equal(t, StatusCompleted, last[0].Status)
	require.Equal(t, 5, last[0].Files)
}
