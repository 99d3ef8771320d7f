package badgeapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/iver-wharf/wharf-postbuild/pkg/badge"
	"github.com/iver-wharf/wharf-postbuild/pkg/build"
	"github.com/iver-wharf/wharf-postbuild/pkg/buildstore"
	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, buildstore.Store) {
	t.Helper()
	store := buildstore.NewFSStore(buildstore.NewFS(t.TempDir()))

	b := build.New("matrix/axis1=value1", 1, build.KindMatrixRun)
	b.Result = result.Unstable
	b.AddAction(badge.NewShortText("hello"))
	b.AddAction(badge.NewBadge(null.StringFrom("/static/warning.gif"), "careful"))
	summary := badge.NewSummary("/static/info.gif")
	summary.AppendText("<b>bold</b>", false)
	b.AddAction(summary)
	require.NoError(t, store.Save(b))

	w, err := store.AppendLog(b)
	require.NoError(t, err)
	_, err = io.WriteString(w, "line 1\nline 2\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return NewRouter(store, CORSConfig{}), store
}

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(rec, req)
	return rec
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := serve(r, "/api/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestListBuilds(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := serve(r, "/api/job/matrix%2Faxis1=value1/build")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"job":"matrix/axis1=value1","numbers":[1]}`, rec.Body.String())
}

func TestListBuilds_UnknownJobIsEmpty(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := serve(r, "/api/job/nope/build")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"job":"nope","numbers":[]}`, rec.Body.String())
}

func TestGetBuild(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := serve(r, "/api/job/matrix%2Faxis1=value1/build/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var got build.Build
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "matrix/axis1=value1", got.Job)
	assert.Equal(t, result.Unstable, got.Result)
	assert.Len(t, got.Badges(), 2)
	assert.Len(t, got.Summaries(), 1)
}

func TestListBadges(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := serve(r, "/api/job/matrix%2Faxis1=value1/build/1/badges")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*badge.Badge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0].Text())
	assert.True(t, got[0].TextOnly())
	assert.Equal(t, "careful", got[1].Text())
	assert.Equal(t, null.StringFrom("/static/warning.gif"), got[1].IconPath())
}

func TestListSummaries(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := serve(r, "/api/job/matrix%2Faxis1=value1/build/1/summaries")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []*badge.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "/static/info.gif", got[0].IconPath())
	assert.Equal(t, "<b>bold</b>", got[0].Text())
}

func TestListBadges_EmptyIsArray(t *testing.T) {
	r, store := newTestRouter(t)
	require.NoError(t, store.Save(build.New("plain", 1, build.KindFreeStyle)))

	rec := serve(r, "/api/job/plain/build/1/badges")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetLog(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := serve(r, "/api/job/matrix%2Faxis1=value1/build/1/log")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "line 1\nline 2\n", rec.Body.String())
}

func TestGetBuild_Errors(t *testing.T) {
	r, _ := newTestRouter(t)
	testCases := []struct {
		name string
		path string
		want int
	}{
		{name: "unknown build", path: "/api/job/matrix%2Faxis1=value1/build/2", want: http.StatusNotFound},
		{name: "unknown job", path: "/api/job/other/build/1/badges", want: http.StatusNotFound},
		{name: "non-numeric number", path: "/api/job/other/build/abc", want: http.StatusBadRequest},
		{name: "invalid job", path: "/api/job/..%2Fescape/build/1", want: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(r, tc.path)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestSwaggerDoc(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := serve(r, "/api/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "Wharf post-build badge API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/api/job/{job}/build/{number}/badges")
}
