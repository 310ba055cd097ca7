package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/pkg/schema"
)

func testCaller() *iam.Caller {
	return &iam.Caller{
		User: schema.User{Username: "alice"},
		RightsByGroup: map[string]schema.RightSet{
			"alice":            schema.AllRights,
			schema.GroupGlobal: schema.NewRightSet(schema.BenchmarkRead, schema.ArtifactRead, schema.EpisodeRead),
		},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *MockIAMService, *MockRegistryService) {
	t.Helper()
	iamSvc := &MockIAMService{}
	registrySvc := &MockRegistryService{}
	ts := httptest.NewServer(NewRouter(RouterOptions{IAM: iamSvc, Registry: registrySvc}))
	t.Cleanup(ts.Close)
	return ts, iamSvc, registrySvc
}

func doRequest(t *testing.T, method, url string, body io.Reader, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthNeedsNoAuth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingTokenRejected(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/access/users/list")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	iamSvc.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
}

func TestNonBearerSchemeRejected(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/access/users/list", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic dXNlcjpwdw==")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginReturnsTokenPair(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)
	pair := schema.TokenPair{
		AccessToken:  schema.Token{Token: "acc", TokenType: "bearer"},
		RefreshToken: schema.Token{Token: "ref", TokenType: "bearer"},
	}
	iamSvc.On("Login", mock.Anything, "alice", "pw").Return(pair, nil)

	resp := doRequest(t, http.MethodPost, ts.URL+"/access/users/token",
		strings.NewReader(`{"username":"alice","password":"pw"}`), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got schema.TokenPair
	decodeResponse(t, resp, &got)
	assert.Equal(t, pair, got)
}

func TestLoginBadCredentials(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)
	iamSvc.On("Login", mock.Anything, "alice", "wrong").
		Return(schema.TokenPair{}, schema.Unauthorizedf("Incorrect username or password"))

	resp := doRequest(t, http.MethodPost, ts.URL+"/access/users/token",
		strings.NewReader(`{"username":"alice","password":"wrong"}`), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	decodeResponse(t, resp, &body)
	assert.Equal(t, "Incorrect username or password", body["detail"])
}

func TestRefreshUsesRawBearerToken(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)
	iamSvc.On("Refresh", mock.Anything, "refresh-token").
		Return(schema.Token{Token: "new-access", TokenType: "bearer"}, nil)

	resp := doRequest(t, http.MethodPost, ts.URL+"/access/users/refresh-token", nil, "refresh-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got schema.Token
	decodeResponse(t, resp, &got)
	assert.Equal(t, "new-access", got.Token)
	// The refresh route must not run the access-token middleware.
	iamSvc.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestSignupIsPublic(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)
	iamSvc.On("Signup", mock.Anything, mock.Anything).
		Return(schema.User{Username: "bob"}, nil)

	resp := doRequest(t, http.MethodPost, ts.URL+"/access/signup",
		strings.NewReader(`{"username":"bob","password":"pw"}`), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupConflict(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)
	iamSvc.On("Signup", mock.Anything, mock.Anything).
		Return(schema.User{}, schema.Conflictf("User already exists"))

	resp := doRequest(t, http.MethodPost, ts.URL+"/access/signup",
		strings.NewReader(`{"username":"bob","password":"pw"}`), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateBenchmark(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	caller := testCaller()
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(caller, nil)
	registrySvc.On("CreateBenchmark", mock.Anything, caller, mock.Anything).
		Return(schema.BenchmarkHeader{ID: "b1", Hash: "h", CreatedBy: "alice"}, nil)

	resp := doRequest(t, http.MethodPost, ts.URL+"/benchmarks/create",
		strings.NewReader(`{"hash":"h","metadata":{"name":"cartpole"},"serialized":"{}"}`), "tok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got schema.BenchmarkHeader
	decodeResponse(t, resp, &got)
	assert.Equal(t, "b1", got.ID)
}

func TestCreateBenchmarkConflict(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("CreateBenchmark", mock.Anything, mock.Anything, mock.Anything).
		Return(schema.BenchmarkHeader{}, schema.Conflictf("Benchmark already exists"))

	resp := doRequest(t, http.MethodPost, ts.URL+"/benchmarks/create",
		strings.NewReader(`{"hash":"h","metadata":{"name":"cartpole"}}`), "tok")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoadBenchmarkRequiresID(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)

	resp := doRequest(t, http.MethodGet, ts.URL+"/benchmarks/load", nil, "tok")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestLoadBenchmarkNotFound(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("LoadBenchmark", mock.Anything, mock.Anything, "missing").
		Return(schema.Benchmark{}, schema.NotFoundf("Benchmark not found"))

	resp := doRequest(t, http.MethodGet, ts.URL+"/benchmarks/load?benchmark_id=missing", nil, "tok")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListBenchmarksWithFilterBody(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("ListBenchmarks", mock.Anything, mock.Anything, mock.MatchedBy(func(f *schema.Filter) bool {
		return f.Type == schema.FilterTypeEQ && f.Key == "metadata.difficulty"
	})).Return([]schema.BenchmarkHeader{{ID: "b1"}}, nil)

	resp := doRequest(t, http.MethodPost, ts.URL+"/benchmarks/list",
		strings.NewReader(`{"type":"EQ","key":"metadata.difficulty","value":"easy"}`), "tok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []schema.BenchmarkHeader
	decodeResponse(t, resp, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].ID)
}

func TestPublishBenchmark(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("PublishBenchmark", mock.Anything, mock.Anything, "b1", "team").Return(nil)

	resp := doRequest(t, http.MethodPut,
		ts.URL+"/benchmarks/publish?benchmark_id=b1&publish_in=team", nil, "tok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	registrySvc.AssertExpectations(t)
}

func TestDeleteBenchmarkIdempotent(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("DeleteBenchmark", mock.Anything, mock.Anything, "gone").Return(nil)

	for i := 0; i < 2; i++ {
		resp := doRequest(t, http.MethodDelete, ts.URL+"/benchmarks/delete?benchmark_id=gone", nil, "tok")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestUploadArtifact(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("StoreArtifact", mock.Anything, mock.Anything, []byte("blob-bytes"),
		schema.ArtifactMetadata{Name: "weights"}).
		Return(schema.ArtifactMetadataItem{ID: "deadbeef", ArtifactMetadata: schema.ArtifactMetadata{Name: "weights"}}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("data", "weights.bin")
	require.NoError(t, err)
	_, err = part.Write([]byte("blob-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("metadata", `{"name":"weights"}`))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/artifacts/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer tok")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]string
	decodeResponse(t, resp, &got)
	assert.Equal(t, "deadbeef", got["id"])
}

func TestDownloadArtifactCarriesMetadataHeader(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	item := schema.ArtifactMetadataItem{
		ID:               "deadbeef",
		Hash:             "deadbeef",
		CreatedBy:        "alice",
		ArtifactMetadata: schema.ArtifactMetadata{Name: "weights"},
	}
	registrySvc.On("LoadArtifact", mock.Anything, mock.Anything, "deadbeef").
		Return(item, []byte("blob-bytes"), nil)

	resp := doRequest(t, http.MethodGet, ts.URL+"/artifacts/download?artifact_id=deadbeef", nil, "tok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("blob-bytes"), body)

	var meta schema.ArtifactMetadataItem
	require.NoError(t, json.Unmarshal([]byte(resp.Header.Get("X-Metadata")), &meta))
	assert.Equal(t, item, meta)
}

func TestRecordEpisode(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("RecordEpisode", mock.Anything, mock.Anything, mock.MatchedBy(func(e schema.Episode) bool {
		return e.BenchmarkID == "b1" && len(e.Tuples) == 1
	})).Return(schema.EpisodeHeader{ID: "e1", BenchmarkID: "b1", NTuples: 1}, nil)

	resp := doRequest(t, http.MethodPost, ts.URL+"/episodes/record",
		strings.NewReader(`{"benchmark_id":"b1","tuples":[{"state":{},"action":{},"reward":1.5,"terminal":true,"timeout":false}]}`), "tok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got schema.EpisodeHeader
	decodeResponse(t, resp, &got)
	assert.Equal(t, "e1", got.ID)
}

func TestListEpisodesPassesIncludeTuples(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("ListEpisodes", mock.Anything, mock.Anything, mock.MatchedBy(func(q schema.EpisodesListQuery) bool {
		return q.IncludeTuples && q.Filter.Type == schema.FilterTypeEQ
	})).Return([]schema.EpisodeItem{}, nil)

	resp := doRequest(t, http.MethodPost, ts.URL+"/episodes/list",
		strings.NewReader(`{"type":"EQ","key":"benchmark_id","value":"b1","include_tuples":true}`), "tok")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	registrySvc.AssertExpectations(t)
}

func TestPublishEpisodeParentScopeViolation(t *testing.T) {
	ts, iamSvc, registrySvc := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	registrySvc.On("PublishEpisode", mock.Anything, mock.Anything, "e1", "team").
		Return(schema.Validationf("benchmark is not published in group team"))

	resp := doRequest(t, http.MethodPut,
		ts.URL+"/episodes/publish?episode_id=e1&publish_in=team", nil, "tok")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestForbiddenMapsTo403(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)
	iamSvc.On("ListUsers", mock.Anything, mock.Anything).
		Return(nil, schema.Forbiddenf("Insufficient rights to list users"))

	resp := doRequest(t, http.MethodGet, ts.URL+"/access/users/list", nil, "tok")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMalformedBodyIs422(t *testing.T) {
	ts, iamSvc, _ := newTestServer(t)
	iamSvc.On("Authenticate", mock.Anything, "tok").Return(testCaller(), nil)

	resp := doRequest(t, http.MethodPost, ts.URL+"/benchmarks/create",
		strings.NewReader(`{"hash": `), "tok")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
