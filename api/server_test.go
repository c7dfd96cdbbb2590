package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkbio/harvester"
	"github.com/linkbio/harvester/models"
	"github.com/linkbio/harvester/rules"
)

// fakeStore implements Store in memory with the same identity-key
// semantics as the Postgres store.
type fakeStore struct {
	social    map[string]string
	community map[string]string
	shop      map[string]*models.ShopLink
	clicks    map[string]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		social:    make(map[string]string),
		community: make(map[string]string),
		shop:      make(map[string]*models.ShopLink),
		clicks:    make(map[string]int64),
	}
}

func (f *fakeStore) UpsertSocialLink(ctx context.Context, userID, platform, url string) error {
	f.social[userID+"|"+platform] = url
	return nil
}

func (f *fakeStore) CreateCommunityLink(ctx context.Context, userID, platform, url, title string) (bool, error) {
	key := userID + "|" + platform + "|" + url
	if _, ok := f.community[key]; ok {
		return false, nil
	}
	f.community[key] = title
	return true, nil
}

func (f *fakeStore) CreateShopLink(ctx context.Context, link *models.ShopLink) (bool, error) {
	key := link.UserID + "|" + link.URL
	if _, ok := f.shop[key]; ok {
		return false, nil
	}
	f.shop[key] = link
	return true, nil
}

func (f *fakeStore) IncrementShopLinkClicks(ctx context.Context, id string) (int64, error) {
	if _, ok := f.clicks[id]; !ok {
		return 0, models.NewNotFound("no shop link found with id: %s", id)
	}
	f.clicks[id]++
	return f.clicks[id], nil
}

// fakeMetaCache records gets and sets.
type fakeMetaCache struct {
	data map[string]string
}

func (c *fakeMetaCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return "", errors.New("cache miss")
}

func (c *fakeMetaCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func setupServer(t *testing.T, rs *rules.Ruleset, store Store, cache MetaCache) *Server {
	t.Helper()
	if rs == nil {
		rs = rules.Default()
	}
	h := harvester.New(harvester.DefaultConfig(), rs, nil)
	return NewServer(Config{Addr: ":0"}, store, h, cache, nil)
}

func doJSON(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestExtractLinksValidation(t *testing.T) {
	server := setupServer(t, nil, newFakeStore(), nil)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantError  string
	}{
		{"missing profile_url", ExtractLinksRequest{}, http.StatusBadRequest, "profile_url_required"},
		{"invalid body", "not json", http.StatusBadRequest, "invalid_request_body"},
		{"invalid url", ExtractLinksRequest{ProfileURL: "not a url"}, http.StatusBadRequest, "invalid_url"},
		{"invalid protocol", ExtractLinksRequest{ProfileURL: "ftp://linktr.ee/x"}, http.StatusBadRequest, "invalid_protocol"},
		{"unsupported domain", ExtractLinksRequest{ProfileURL: "https://example.com/x"}, http.StatusBadRequest, "domain_not_supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, server, http.MethodPost, "/extract-links", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestExtractLinksSuccess(t *testing.T) {
	profilePage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
<html><body>
	<a href="https://instagram.com/someone">IG</a>
	<a href="https://t.me/chan">TG</a>
	<a href="https://randomshop.example/deal">Shop</a>
</body></html>`))
	}))
	defer profilePage.Close()

	u, err := url.Parse(profilePage.URL)
	require.NoError(t, err)
	rs := rules.New(
		[]string{u.Hostname()},
		nil,
		[]rules.PlatformRule{{Domain: "instagram.com", Platform: "instagram"}},
		[]rules.PlatformRule{{Domain: "t.me", Platform: "telegram"}},
	)

	server := setupServer(t, rs, newFakeStore(), nil)
	rec := doJSON(t, server, http.MethodPost, "/extract-links", ExtractLinksRequest{ProfileURL: profilePage.URL + "/someone"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ExtractLinksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, u.Hostname(), resp.Source)
	require.Len(t, resp.Links.Social, 1)
	assert.Equal(t, "instagram", resp.Links.Social[0].Platform)
	require.Len(t, resp.Links.Community, 1)
	require.Len(t, resp.Links.AffiliateShop, 1)
	assert.Equal(t, "randomshop.example", resp.Links.AffiliateShop[0].Domain)
}

func TestFetchMetaValidation(t *testing.T) {
	server := setupServer(t, nil, newFakeStore(), nil)

	rec := doJSON(t, server, http.MethodPost, "/fetch-meta", FetchMetaRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "url_required", decodeBody(t, rec)["error"])

	rec = doJSON(t, server, http.MethodPost, "/fetch-meta", FetchMetaRequest{URL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_url", decodeBody(t, rec)["error"])
}

func TestFetchMetaFailureIsNonFatal(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer target.Close()

	server := setupServer(t, nil, newFakeStore(), nil)
	rec := doJSON(t, server, http.MethodPost, "/fetch-meta", FetchMetaRequest{URL: target.URL})

	// Metadata failure is a structured result with HTTP 200.
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "fetch_failed", body["error"])
}

func TestFetchMetaSuccessAndCache(t *testing.T) {
	var hits int
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="A Product">
			<meta property="og:image" content="https://cdn.example.com/p.jpg">
			<meta property="product:price:amount" content="10.99">
		</head><body></body></html>`))
	}))
	defer target.Close()

	cache := &fakeMetaCache{data: make(map[string]string)}
	server := setupServer(t, nil, newFakeStore(), cache)

	rec := doJSON(t, server, http.MethodPost, "/fetch-meta", FetchMetaRequest{URL: target.URL})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FetchMetaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "A Product", resp.Data.Title)
	assert.Equal(t, "10.99 USD", resp.Data.Price)

	// Second request is served from the cache.
	rec = doJSON(t, server, http.MethodPost, "/fetch-meta", FetchMetaRequest{URL: target.URL})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, hits)
}

func TestImportLinks(t *testing.T) {
	store := newFakeStore()
	server := setupServer(t, nil, store, nil)

	rec := doJSON(t, server, http.MethodPost, "/import-links", ImportLinksRequest{UserID: "user1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "links_required", decodeBody(t, rec)["error"])

	rec = doJSON(t, server, http.MethodPost, "/import-links", ImportLinksRequest{
		Links: &models.ClassifiedLinks{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user_id_required", decodeBody(t, rec)["error"])

	rec = doJSON(t, server, http.MethodPost, "/import-links", ImportLinksRequest{
		UserID: "user1",
		Links: &models.ClassifiedLinks{
			Social:        []models.SocialEntry{{Platform: "instagram", URL: "https://instagram.com/a"}},
			Community:     []models.CommunityEntry{{Platform: "telegram", URL: "https://t.me/chan"}},
			AffiliateShop: []models.ShopEntry{{URL: "https://shop.example.com/x"}},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ImportLinksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.ImportCounts{Social: 1, Community: 1, Shop: 1}, resp.Imported)
	assert.Equal(t, "https://instagram.com/a", store.social["user1|instagram"])
}

func TestShopLinkClick(t *testing.T) {
	store := newFakeStore()
	store.clicks["link123"] = 0
	server := setupServer(t, nil, store, nil)

	rec := doJSON(t, server, http.MethodPost, "/shop-links/link123/click", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ClickResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(1), resp.Clicks)

	// Clicks strictly increase.
	rec = doJSON(t, server, http.MethodPost, "/shop-links/link123/click", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Clicks)

	rec = doJSON(t, server, http.MethodPost, "/shop-links/unknown/click", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "link_not_found", decodeBody(t, rec)["error"])

	rec = doJSON(t, server, http.MethodGet, "/shop-links/link123/click", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestShopLinkClickEmptyID(t *testing.T) {
	server := setupServer(t, nil, newFakeStore(), nil)

	// The mux normalizes double slashes, so hit the handler directly.
	req := httptest.NewRequest(http.MethodPost, "/shop-links//click", nil)
	rec := httptest.NewRecorder()
	server.handleShopLink(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "link_id_required", decodeBody(t, rec)["error"])
}
