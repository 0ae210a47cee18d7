package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"moviecatalog/internal/controller/auth"
	"moviecatalog/internal/controller/catalog"
	"moviecatalog/internal/controller/watchlist"
	"moviecatalog/internal/repository/memory"
	"moviecatalog/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v6"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	repo := memory.New(zap.NewNop())

	gotg := model.NewMovie("Guardians of the Galaxy", 2014)
	gotg.Rank = 1
	gotg.Director = model.NewDirector("James Gunn")
	gotg.AddGenre(model.NewGenre("Action"))
	require.NoError(t, gotg.SetRuntimeMinutes(121))
	require.NoError(t, repo.AddGenre(ctx, model.NewGenre("Action")))
	require.NoError(t, repo.AddMovie(ctx, gotg))

	sing := model.NewMovie("Sing", 2016)
	sing.Rank = 2
	require.NoError(t, sing.SetRuntimeMinutes(108))
	require.NoError(t, repo.AddMovie(ctx, sing))

	secret := func() []byte { return []byte("test-secret") }
	h := New(
		catalog.New(repo),
		auth.New(repo, secret, time.Hour),
		watchlist.New(repo),
		tally.NoopScope,
		zap.NewNop(),
	)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postForm(t *testing.T, srv *httptest.Server, path string, form url.Values, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	resp := postForm(t, srv, "/register", form, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postForm(t, srv, "/login", form, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.NotEmpty(t, body["token"])
	return body["token"]
}

func TestMovieEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/movie?rank=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movie catalog.Movie
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&movie))
	assert.Equal(t, "Guardians of the Galaxy", movie.Title)
	assert.Equal(t, "James Gunn", movie.Director.Name)

	resp, err = srv.Client().Get(srv.URL + "/movie?rank=99")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/movie?rank=abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/movies?ranks=2,1")
	require.NoError(t, err)
	var movies []catalog.Movie
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&movies))
	resp.Body.Close()
	require.Len(t, movies, 2)
	assert.Equal(t, "Sing", movies[0].Title)

	resp, err = srv.Client().Get(srv.URL + "/movies/count")
	require.NoError(t, err)
	var count map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&count))
	resp.Body.Close()
	assert.Equal(t, 2, count["count"])
}

func TestGenreEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/genres")
	require.NoError(t, err)
	var genres []catalog.Genre
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&genres))
	resp.Body.Close()
	assert.Equal(t, []catalog.Genre{{Name: "Action"}}, genres)

	resp, err = srv.Client().Get(srv.URL + "/genre?name=Action")
	require.NoError(t, err)
	var ranks map[string][]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ranks))
	resp.Body.Close()
	assert.Equal(t, []int{1}, ranks["ranks"])
}

func TestRegisterLoginAndReview(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "yeezy", "Abcd123")

	// Weak password is rejected up front.
	resp := postForm(t, srv, "/register", url.Values{"username": {"other"}, "password": {"weak"}}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Duplicate username.
	resp = postForm(t, srv, "/register", url.Values{"username": {"yeezy"}, "password": {"Abcd123"}}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Wrong password.
	resp = postForm(t, srv, "/login", url.Values{"username": {"yeezy"}, "password": {"Wrong123"}}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Review without a session.
	form := url.Values{"rank": {"1"}, "review_text": {"Great!"}, "rating": {"9"}}
	resp = postForm(t, srv, "/review", form, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Review with a session.
	resp = postForm(t, srv, "/review", form, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var review catalog.Review
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&review))
	resp.Body.Close()
	assert.Equal(t, 1, review.MovieRank)
	assert.Equal(t, "yeezy", review.Username)

	resp, err := srv.Client().Get(srv.URL + "/review?rank=1")
	require.NoError(t, err)
	var reviews []catalog.Review
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reviews))
	resp.Body.Close()
	require.Len(t, reviews, 1)
	assert.Equal(t, "Great!", reviews[0].ReviewText)

	// Review of a missing movie.
	resp = postForm(t, srv, "/review", url.Values{"rank": {"99"}, "review_text": {"?"}, "rating": {"5"}}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestWatchListEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := registerAndLogin(t, srv, "yeezy", "Abcd123")

	resp, err := srv.Client().Get(srv.URL + "/watchlists")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postForm(t, srv, "/watchlists", url.Values{"name": {"weekend"}}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postForm(t, srv, "/watchlists/movies", url.Values{"name": {"weekend"}, "rank": {"1"}}, token)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/watchlists", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	var lists []watchlist.WatchList
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lists))
	resp.Body.Close()
	require.Len(t, lists, 1)
	assert.Equal(t, "weekend", lists[0].Name)
	require.Len(t, lists[0].Movies, 1)
	assert.Equal(t, "Guardians of the Galaxy", lists[0].Movies[0].Title)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/watchlists/sorted?name=weekend&by=title", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var movies []watchlist.Movie
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&movies))
	resp.Body.Close()
	require.Len(t, movies, 1)

	resp = postForm(t, srv, "/watchlists/movies", url.Values{"name": {"no such list"}, "rank": {"1"}}, token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
