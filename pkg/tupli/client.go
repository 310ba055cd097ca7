package tupli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/tumcps/tupli/pkg/schema"
)

// Client talks to a registry server over HTTP. It implements Storage
// and transparently refreshes the access token once on a 401.
type Client struct {
	baseURL string
	http    *http.Client
	store   CredentialStore
}

var _ Storage = (*Client)(nil)

// ClientOptions configures client construction.
type ClientOptions struct {
	HTTPClient      *http.Client
	CredentialStore CredentialStore
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithCredentialStore overrides where tokens are persisted. The default
// keeps them in process memory.
func WithCredentialStore(store CredentialStore) ClientOption {
	return func(opts *ClientOptions) {
		opts.CredentialStore = store
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.CredentialStore == nil {
		opts.CredentialStore = &memoryStore{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    opts.HTTPClient,
		store:   opts.CredentialStore,
	}
}

// errorFromResponse rebuilds the typed error a server handler emitted.
func errorFromResponse(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	var wire struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &wire); err == nil && wire.Detail != "" {
		detail = wire.Detail
	}
	switch status {
	case http.StatusUnauthorized:
		return schema.Unauthorizedf("%s", detail)
	case http.StatusForbidden:
		return schema.Forbiddenf("%s", detail)
	case http.StatusNotFound:
		return schema.NotFoundf("%s", detail)
	case http.StatusConflict:
		return schema.Conflictf("%s", detail)
	case http.StatusUnprocessableEntity:
		return schema.Validationf("%s", detail)
	default:
		return schema.StorageErr(detail, fmt.Errorf("server returned %d", status))
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// send performs one request with the current access token. The caller
// owns the response body.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if creds, err := c.store.LoadCredentials(); err == nil && creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	return c.http.Do(req)
}

// do sends a request and retries exactly once after refreshing the
// access token when the server answers 401.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, contentType string) (*http.Response, error) {
	resp, err := c.send(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, schema.StorageErr("request failed", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	resp, err = c.send(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, schema.StorageErr("request failed", err)
	}
	return resp, nil
}

// doJSON sends an optional JSON body and decodes an optional JSON
// response.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body []byte
	contentType := ""
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return schema.Validationf("encoding request: %v", err)
		}
		contentType = "application/json"
	}
	resp, err := c.do(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.StorageErr("reading response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return schema.StorageErr("decoding response", err)
	}
	return nil
}

// refresh exchanges the stored refresh token for a new access token.
func (c *Client) refresh(ctx context.Context) error {
	creds, err := c.store.LoadCredentials()
	if err != nil || creds.RefreshToken == "" {
		return schema.Unauthorizedf("Not authenticated")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/access/users/refresh-token", nil), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+creds.RefreshToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return schema.StorageErr("request failed", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.StorageErr("reading response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return errorFromResponse(resp.StatusCode, data)
	}
	var token schema.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return schema.StorageErr("decoding response", err)
	}
	return c.store.SaveCredentials(&Credentials{
		AccessToken:  token.Token,
		RefreshToken: creds.RefreshToken,
	})
}

// Signup registers a new user account.
func (c *Client) Signup(ctx context.Context, username, password string) (schema.User, error) {
	var user schema.User
	creds := schema.UserCredentials{Username: &username, Password: &password}
	err := c.doJSON(ctx, http.MethodPost, "/access/signup", nil, creds, &user)
	return user, err
}

// Login exchanges credentials for a token pair and persists it.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var pair schema.TokenPair
	if err := c.doJSON(ctx, http.MethodPost, "/access/users/token", nil, body, &pair); err != nil {
		return err
	}
	return c.store.SaveCredentials(&Credentials{
		AccessToken:  pair.AccessToken.Token,
		RefreshToken: pair.RefreshToken.Token,
	})
}

// Logout discards the persisted tokens. Purely local; the server keeps
// no session state.
func (c *Client) Logout() error {
	return c.store.DeleteCredentials()
}

// --- users, roles, groups ---

func (c *Client) CreateUser(ctx context.Context, username, password string) (schema.User, error) {
	var user schema.User
	creds := schema.UserCredentials{Username: &username, Password: &password}
	err := c.doJSON(ctx, http.MethodPost, "/access/users/create", nil, creds, &user)
	return user, err
}

func (c *Client) ListUsers(ctx context.Context) ([]schema.User, error) {
	var users []schema.User
	err := c.doJSON(ctx, http.MethodGet, "/access/users/list", nil, nil, &users)
	return users, err
}

func (c *Client) ChangePassword(ctx context.Context, username, password string) (schema.User, error) {
	var user schema.User
	creds := schema.UserCredentials{Username: &username, Password: &password}
	err := c.doJSON(ctx, http.MethodPut, "/access/users/change-password", nil, creds, &user)
	return user, err
}

func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.doJSON(ctx, http.MethodDelete, "/access/users/delete",
		url.Values{"username": {username}}, nil, nil)
}

func (c *Client) CreateRole(ctx context.Context, role schema.Role) (schema.Role, error) {
	var created schema.Role
	err := c.doJSON(ctx, http.MethodPost, "/access/roles/create", nil, role, &created)
	return created, err
}

func (c *Client) ListRoles(ctx context.Context) ([]schema.Role, error) {
	var roles []schema.Role
	err := c.doJSON(ctx, http.MethodGet, "/access/roles/list", nil, nil, &roles)
	return roles, err
}

func (c *Client) DeleteRole(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/access/roles/delete",
		url.Values{"role_name": {name}}, nil, nil)
}

func (c *Client) CreateGroup(ctx context.Context, group schema.Group) (schema.Group, error) {
	var created schema.Group
	err := c.doJSON(ctx, http.MethodPost, "/access/groups/create", nil, group, &created)
	return created, err
}

func (c *Client) ListGroups(ctx context.Context) ([]schema.Group, error) {
	var groups []schema.Group
	err := c.doJSON(ctx, http.MethodGet, "/access/groups/list", nil, nil, &groups)
	return groups, err
}

func (c *Client) ReadGroup(ctx context.Context, name string) (schema.GroupWithMembers, error) {
	var group schema.GroupWithMembers
	err := c.doJSON(ctx, http.MethodGet, "/access/groups/read",
		url.Values{"group_name": {name}}, nil, &group)
	return group, err
}

func (c *Client) DeleteGroup(ctx context.Context, name string) error {
	return c.doJSON(ctx, http.MethodDelete, "/access/groups/delete",
		url.Values{"group_name": {name}}, nil, nil)
}

func (c *Client) AddMembers(ctx context.Context, query schema.GroupMembershipQuery) (schema.Group, error) {
	var group schema.Group
	err := c.doJSON(ctx, http.MethodPost, "/access/groups/add-members", nil, query, &group)
	return group, err
}

func (c *Client) RemoveMembers(ctx context.Context, query schema.GroupMembershipQuery) (schema.Group, error) {
	var group schema.Group
	err := c.doJSON(ctx, http.MethodPost, "/access/groups/remove-members", nil, query, &group)
	return group, err
}

// --- benchmarks ---

func (c *Client) CreateBenchmark(ctx context.Context, query schema.BenchmarkQuery) (schema.BenchmarkHeader, error) {
	var header schema.BenchmarkHeader
	err := c.doJSON(ctx, http.MethodPost, "/benchmarks/create", nil, query, &header)
	return header, err
}

func (c *Client) LoadBenchmark(ctx context.Context, id string) (schema.Benchmark, error) {
	var benchmark schema.Benchmark
	err := c.doJSON(ctx, http.MethodGet, "/benchmarks/load",
		url.Values{"benchmark_id": {id}}, nil, &benchmark)
	return benchmark, err
}

func (c *Client) ListBenchmarks(ctx context.Context, filter *schema.Filter) ([]schema.BenchmarkHeader, error) {
	var headers []schema.BenchmarkHeader
	err := c.doJSON(ctx, http.MethodPost, "/benchmarks/list", nil, listBody(filter), &headers)
	return headers, err
}

func (c *Client) PublishBenchmark(ctx context.Context, id, group string) error {
	return c.doJSON(ctx, http.MethodPut, "/benchmarks/publish",
		url.Values{"benchmark_id": {id}, "publish_in": {group}}, nil, nil)
}

func (c *Client) UnpublishBenchmark(ctx context.Context, id, group string) error {
	return c.doJSON(ctx, http.MethodPut, "/benchmarks/unpublish",
		url.Values{"benchmark_id": {id}, "unpublish_from": {group}}, nil, nil)
}

func (c *Client) DeleteBenchmark(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/benchmarks/delete",
		url.Values{"benchmark_id": {id}}, nil, nil)
}

// --- artifacts ---

func (c *Client) StoreArtifact(ctx context.Context, data []byte, metadata schema.ArtifactMetadata) (schema.ArtifactMetadataItem, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("data", "artifact")
	if err != nil {
		return schema.ArtifactMetadataItem{}, schema.StorageErr("building upload", err)
	}
	if _, err := part.Write(data); err != nil {
		return schema.ArtifactMetadataItem{}, schema.StorageErr("building upload", err)
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return schema.ArtifactMetadataItem{}, schema.Validationf("encoding metadata: %v", err)
	}
	if err := mw.WriteField("metadata", string(meta)); err != nil {
		return schema.ArtifactMetadataItem{}, schema.StorageErr("building upload", err)
	}
	if err := mw.Close(); err != nil {
		return schema.ArtifactMetadataItem{}, schema.StorageErr("building upload", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/artifacts/upload", nil, buf.Bytes(), mw.FormDataContentType())
	if err != nil {
		return schema.ArtifactMetadataItem{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.ArtifactMetadataItem{}, schema.StorageErr("reading response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return schema.ArtifactMetadataItem{}, errorFromResponse(resp.StatusCode, body)
	}
	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return schema.ArtifactMetadataItem{}, schema.StorageErr("decoding response", err)
	}
	item := schema.ArtifactMetadataItem{ArtifactMetadata: metadata, ID: uploaded.ID, Hash: uploaded.ID}
	return item, nil
}

func (c *Client) LoadArtifact(ctx context.Context, id string) (schema.ArtifactMetadataItem, []byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/artifacts/download",
		url.Values{"artifact_id": {id}}, nil, "")
	if err != nil {
		return schema.ArtifactMetadataItem{}, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return schema.ArtifactMetadataItem{}, nil, schema.StorageErr("reading response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return schema.ArtifactMetadataItem{}, nil, errorFromResponse(resp.StatusCode, body)
	}
	var item schema.ArtifactMetadataItem
	if raw := resp.Header.Get("X-Metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return schema.ArtifactMetadataItem{}, nil, schema.StorageErr("decoding metadata header", err)
		}
	}
	return item, body, nil
}

func (c *Client) ListArtifacts(ctx context.Context, filter *schema.Filter) ([]schema.ArtifactMetadataItem, error) {
	var items []schema.ArtifactMetadataItem
	err := c.doJSON(ctx, http.MethodPost, "/artifacts/list", nil, listBody(filter), &items)
	return items, err
}

func (c *Client) PublishArtifact(ctx context.Context, id, group string) error {
	return c.doJSON(ctx, http.MethodPut, "/artifacts/publish",
		url.Values{"artifact_id": {id}, "publish_in": {group}}, nil, nil)
}

func (c *Client) UnpublishArtifact(ctx context.Context, id, group string) error {
	return c.doJSON(ctx, http.MethodPut, "/artifacts/unpublish",
		url.Values{"artifact_id": {id}, "unpublish_from": {group}}, nil, nil)
}

func (c *Client) DeleteArtifact(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/artifacts/delete",
		url.Values{"artifact_id": {id}}, nil, nil)
}

// --- episodes ---

func (c *Client) RecordEpisode(ctx context.Context, episode schema.Episode) (schema.EpisodeHeader, error) {
	var header schema.EpisodeHeader
	err := c.doJSON(ctx, http.MethodPost, "/episodes/record", nil, episode, &header)
	return header, err
}

func (c *Client) ListEpisodes(ctx context.Context, query schema.EpisodesListQuery) ([]schema.EpisodeItem, error) {
	var items []schema.EpisodeItem
	err := c.doJSON(ctx, http.MethodPost, "/episodes/list", nil, query, &items)
	return items, err
}

func (c *Client) PublishEpisode(ctx context.Context, id, group string) error {
	return c.doJSON(ctx, http.MethodPut, "/episodes/publish",
		url.Values{"episode_id": {id}, "publish_in": {group}}, nil, nil)
}

func (c *Client) UnpublishEpisode(ctx context.Context, id, group string) error {
	return c.doJSON(ctx, http.MethodPut, "/episodes/unpublish",
		url.Values{"episode_id": {id}, "unpublish_from": {group}}, nil, nil)
}

func (c *Client) DeleteEpisode(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/episodes/delete",
		url.Values{"episode_id": {id}}, nil, nil)
}

// listBody ensures the list endpoints always see a JSON object; a nil
// filter means match everything.
func listBody(filter *schema.Filter) *schema.Filter {
	if filter == nil {
		return &schema.Filter{}
	}
	return filter
}
