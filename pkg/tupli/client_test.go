package tupli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumcps/tupli/pkg/schema"
)

func TestClientLoginStoresTokens(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/access/users/token", r.URL.Path)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds["username"])
		json.NewEncoder(w).Encode(schema.TokenPair{
			AccessToken:  schema.Token{Token: "acc", TokenType: "bearer"},
			RefreshToken: schema.Token{Token: "ref", TokenType: "bearer"},
		})
	}))
	defer ts.Close()

	store := &memoryStore{}
	client := NewClient(ts.URL, WithCredentialStore(store))
	require.NoError(t, client.Login(context.Background(), "alice", "pw"))

	creds, err := store.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "acc", creds.AccessToken)
	assert.Equal(t, "ref", creds.RefreshToken)

	require.NoError(t, client.Logout())
	_, err = store.LoadCredentials()
	assert.Error(t, err)
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]schema.BenchmarkHeader{})
	}))
	defer ts.Close()

	store := &memoryStore{}
	store.SaveCredentials(&Credentials{AccessToken: "acc"})
	client := NewClient(ts.URL, WithCredentialStore(store))

	_, err := client.ListBenchmarks(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer acc", gotAuth)
}

func TestClientRefreshesOnceOn401(t *testing.T) {
	var calls []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path+" "+r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/benchmarks/list":
			if r.Header.Get("Authorization") == "Bearer fresh" {
				json.NewEncoder(w).Encode([]schema.BenchmarkHeader{{ID: "b1"}})
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Token expired"})
		case "/access/users/refresh-token":
			require.Equal(t, "Bearer ref", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(schema.Token{Token: "fresh", TokenType: "bearer"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	store := &memoryStore{}
	store.SaveCredentials(&Credentials{AccessToken: "stale", RefreshToken: "ref"})
	client := NewClient(ts.URL, WithCredentialStore(store))

	headers, err := client.ListBenchmarks(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.Equal(t, "b1", headers[0].ID)
	assert.Len(t, calls, 3)

	creds, err := store.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "fresh", creds.AccessToken)
	assert.Equal(t, "ref", creds.RefreshToken)
}

func TestClientRefreshFailureSurfacesUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token"})
	}))
	defer ts.Close()

	store := &memoryStore{}
	store.SaveCredentials(&Credentials{AccessToken: "stale", RefreshToken: "ref"})
	client := NewClient(ts.URL, WithCredentialStore(store))

	_, err := client.ListBenchmarks(context.Background(), nil)
	assert.True(t, schema.IsUnauthorized(err))
}

func TestClientRebuildsTypedErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"conflict", http.StatusConflict, schema.IsConflict},
		{"not found", http.StatusNotFound, schema.IsNotFound},
		{"forbidden", http.StatusForbidden, schema.IsForbidden},
		{"validation", http.StatusUnprocessableEntity, schema.IsValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]string{"detail": "nope"})
			}))
			defer ts.Close()

			client := NewClient(ts.URL)
			_, err := client.CreateBenchmark(context.Background(), schema.BenchmarkQuery{Hash: "h"})
			assert.True(t, tc.check(err))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestClientArtifactUploadDownload(t *testing.T) {
	item := schema.ArtifactMetadataItem{
		ArtifactMetadata: schema.ArtifactMetadata{Name: "weights"},
		ID:               "deadbeef",
		Hash:             "deadbeef",
		CreatedBy:        "alice",
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/artifacts/upload":
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, _, err := r.FormFile("data")
			require.NoError(t, err)
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, []byte("blob"), data)
			var meta schema.ArtifactMetadata
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("metadata")), &meta))
			assert.Equal(t, "weights", meta.Name)
			json.NewEncoder(w).Encode(map[string]string{"id": "deadbeef"})
		case "/artifacts/download":
			assert.Equal(t, "deadbeef", r.URL.Query().Get("artifact_id"))
			meta, _ := json.Marshal(item)
			w.Header().Set("X-Metadata", string(meta))
			w.Write([]byte("blob"))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	ctx := context.Background()

	uploaded, err := client.StoreArtifact(ctx, []byte("blob"), schema.ArtifactMetadata{Name: "weights"})
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", uploaded.ID)

	got, data, err := client.LoadArtifact(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), data)
	assert.Equal(t, item, got)
}

func TestClientPublishQueryParams(t *testing.T) {
	var gotQuery map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)
	ctx := context.Background()

	require.NoError(t, client.PublishBenchmark(ctx, "b1", "team"))
	assert.Equal(t, map[string]string{"benchmark_id": "b1", "publish_in": "team"}, gotQuery)

	require.NoError(t, client.UnpublishEpisode(ctx, "e1", "team"))
	assert.Equal(t, map[string]string{"episode_id": "e1", "unpublish_from": "team"}, gotQuery)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFileStoreAt(path)

	_, err := store.LoadCredentials()
	assert.Error(t, err)

	require.NoError(t, store.SaveCredentials(&Credentials{AccessToken: "a", RefreshToken: "r"}))
	creds, err := store.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, "a", creds.AccessToken)

	require.NoError(t, store.DeleteCredentials())
	require.NoError(t, store.DeleteCredentials())
	_, err = store.LoadCredentials()
	assert.Error(t, err)
}
