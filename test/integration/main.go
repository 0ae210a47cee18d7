// Command integration runs an end-to-end smoke test of the catalogue HTTP
// surface against an in-memory repository: register, login, browse, review,
// watchlist. It exits non-zero on the first mismatch.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"moviecatalog/internal/controller/auth"
	"moviecatalog/internal/controller/catalog"
	"moviecatalog/internal/controller/watchlist"
	handler "moviecatalog/internal/handler/http"
	"moviecatalog/internal/repository/memory"
	"moviecatalog/pkg/model"

	"github.com/google/go-cmp/cmp"
	"github.com/uber-go/tally/v6"
	"go.uber.org/zap"
)

func main() {
	log.Println("Starting the integration test")

	ctx := context.Background()
	repo := memory.New(zap.NewNop())
	seed(ctx, repo)

	secret := func() []byte { return []byte("integration-secret") }
	h := handler.New(
		catalog.New(repo),
		auth.New(repo, secret, time.Hour),
		watchlist.New(repo),
		tally.NoopScope,
		zap.NewNop(),
	)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	log.Println("Browsing the catalogue")
	var movie catalog.Movie
	getJSON(srv, "/movie?rank=1", "", &movie)
	wantMovie := catalog.Movie{
		Rank:           1,
		Title:          "Guardians of the Galaxy",
		ReleaseYear:    2014,
		Director:       catalog.Director{Name: "James Gunn"},
		Actors:         []catalog.Actor{{Name: "Chris Pratt"}, {Name: "Vin Diesel"}},
		Genres:         []catalog.Genre{{Name: "Action"}, {Name: "Sci-Fi"}},
		RuntimeMinutes: 121,
	}
	if diff := cmp.Diff(wantMovie, movie); diff != "" {
		log.Fatalf("movie mismatch: %v", diff)
	}

	var genres []catalog.Genre
	getJSON(srv, "/genres", "", &genres)
	if diff := cmp.Diff([]catalog.Genre{{Name: "Action"}, {Name: "Sci-Fi"}, {Name: "Animation"}}, genres); diff != "" {
		log.Fatalf("genres mismatch: %v", diff)
	}

	log.Println("Registering and logging in")
	postExpect(srv, "/register", url.Values{"username": {"smoke"}, "password": {"Abcd123"}}, "", http.StatusCreated)
	var login map[string]string
	postJSON(srv, "/login", url.Values{"username": {"smoke"}, "password": {"Abcd123"}}, "", &login)
	token := login["token"]
	if token == "" {
		log.Fatal("login returned an empty token")
	}

	log.Println("Posting and reading back a review")
	postExpect(srv, "/review", url.Values{"rank": {"1"}, "review_text": {"Smoke tested."}, "rating": {"9"}}, token, http.StatusOK)
	var reviews []catalog.Review
	getJSON(srv, "/review?rank=1", "", &reviews)
	if len(reviews) != 1 || reviews[0].ReviewText != "Smoke tested." || reviews[0].Username != "smoke" {
		log.Fatalf("unexpected reviews: %+v", reviews)
	}

	log.Println("Exercising watchlists")
	postExpect(srv, "/watchlists", url.Values{"name": {"smoke list"}}, token, http.StatusCreated)
	postExpect(srv, "/watchlists/movies", url.Values{"name": {"smoke list"}, "rank": {"1"}}, token, http.StatusNoContent)
	postExpect(srv, "/watchlists/movies", url.Values{"name": {"smoke list"}, "rank": {"2"}}, token, http.StatusNoContent)

	var sorted []watchlist.Movie
	getJSON(srv, "/watchlists/sorted?name="+url.QueryEscape("smoke list")+"&by=title", token, &sorted)
	wantSorted := []watchlist.Movie{
		{Rank: 1, Title: "Guardians of the Galaxy", ReleaseYear: 2014, RuntimeMinutes: 121},
		{Rank: 2, Title: "Sing", ReleaseYear: 2016, RuntimeMinutes: 108},
	}
	if diff := cmp.Diff(wantSorted, sorted); diff != "" {
		log.Fatalf("sorted watchlist mismatch: %v", diff)
	}

	var recommended []watchlist.Movie
	getJSON(srv, "/watchlists/recommendations?name="+url.QueryEscape("smoke list"), token, &recommended)
	if len(recommended) != 3 {
		log.Fatalf("unexpected recommendations: %+v", recommended)
	}

	log.Println("Integration test execution successful")
}

func seed(ctx context.Context, repo *memory.Repository) {
	gotg := model.NewMovie("Guardians of the Galaxy", 2014)
	gotg.Rank = 1
	gotg.Director = model.NewDirector("James Gunn")
	gotg.AddActor(model.NewActor("Chris Pratt"))
	gotg.AddActor(model.NewActor("Vin Diesel"))
	gotg.AddGenre(model.NewGenre("Action"))
	gotg.AddGenre(model.NewGenre("Sci-Fi"))
	mustSet(gotg.SetRuntimeMinutes(121))

	trek := model.NewMovie("Star Trek Beyond", 2016)
	trek.Rank = 3
	trek.AddGenre(model.NewGenre("Action"))
	trek.AddGenre(model.NewGenre("Sci-Fi"))
	mustSet(trek.SetRuntimeMinutes(122))

	sing := model.NewMovie("Sing", 2016)
	sing.Rank = 2
	sing.AddGenre(model.NewGenre("Animation"))
	mustSet(sing.SetRuntimeMinutes(108))

	for _, m := range []*model.Movie{gotg, sing, trek} {
		mustSet(repo.AddDirector(ctx, m.Director))
		for _, g := range m.Genres {
			mustSet(repo.AddGenre(ctx, g))
		}
		for _, a := range m.Actors {
			mustSet(repo.AddActor(ctx, a))
		}
		mustSet(repo.AddMovie(ctx, m))
	}
}

func mustSet(err error) {
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func getJSON(srv *httptest.Server, path, token string, out any) {
	req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if err != nil {
		log.Fatalf("build request %s: %v", path, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		log.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("get %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Fatalf("decode %s: %v", path, err)
	}
}

func postJSON(srv *httptest.Server, path string, form url.Values, token string, out any) {
	resp := post(srv, path, form, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("post %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Fatalf("decode %s: %v", path, err)
	}
}

func postExpect(srv *httptest.Server, path string, form url.Values, token string, want int) {
	resp := post(srv, path, form, token)
	defer resp.Body.Close()
	if resp.StatusCode != want {
		log.Fatalf("post %s: got status %d, want %d", path, resp.StatusCode, want)
	}
}

func post(srv *httptest.Server, path string, form url.Values, token string) *http.Response {
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(form.Encode()))
	if err != nil {
		log.Fatalf("build request %s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		log.Fatalf("post %s: %v", path, err)
	}
	return resp
}
