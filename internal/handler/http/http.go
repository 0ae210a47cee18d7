package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"moviecatalog/internal/controller/auth"
	"moviecatalog/internal/controller/catalog"
	"moviecatalog/internal/controller/watchlist"
	"moviecatalog/internal/repository"
	"moviecatalog/pkg/logging"
	"moviecatalog/pkg/metrics"

	"github.com/uber-go/tally/v6"
	"go.uber.org/zap"
)

// Handler defines a movie catalogue HTTP handler.
type Handler struct {
	catalog   *catalog.Controller
	auth      *auth.Controller
	watchlist *watchlist.Controller
	logger    *zap.Logger

	movieMetrics     *metrics.EndpointMetrics
	moviesMetrics    *metrics.EndpointMetrics
	genresMetrics    *metrics.EndpointMetrics
	reviewMetrics    *metrics.EndpointMetrics
	registerMetrics  *metrics.EndpointMetrics
	loginMetrics     *metrics.EndpointMetrics
	watchlistMetrics *metrics.EndpointMetrics
}

// New creates a new movie catalogue HTTP handler.
func New(catalogCtrl *catalog.Controller, authCtrl *auth.Controller, watchlistCtrl *watchlist.Controller, scope tally.Scope, logger *zap.Logger) *Handler {
	logger = logger.With(
		zap.String(logging.FieldComponent, "handler"),
		zap.String(logging.FieldType, "http"),
	)
	return &Handler{
		catalog:          catalogCtrl,
		auth:             authCtrl,
		watchlist:        watchlistCtrl,
		logger:           logger,
		movieMetrics:     metrics.NewEndpointMetrics(scope, "Movie"),
		moviesMetrics:    metrics.NewEndpointMetrics(scope, "Movies"),
		genresMetrics:    metrics.NewEndpointMetrics(scope, "Genres"),
		reviewMetrics:    metrics.NewEndpointMetrics(scope, "Review"),
		registerMetrics:  metrics.NewEndpointMetrics(scope, "Register"),
		loginMetrics:     metrics.NewEndpointMetrics(scope, "Login"),
		watchlistMetrics: metrics.NewEndpointMetrics(scope, "WatchList"),
	}
}

// Register wires the handler's routes into the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/movie", h.GetMovie)
	mux.HandleFunc("/movies", h.GetMovies)
	mux.HandleFunc("/movies/first", h.GetFirstMovie)
	mux.HandleFunc("/movies/last", h.GetLastMovie)
	mux.HandleFunc("/movies/count", h.GetNumberOfMovies)
	mux.HandleFunc("/genres", h.GetGenres)
	mux.HandleFunc("/genre", h.GetMovieRanksForGenre)
	mux.HandleFunc("/review", h.HandleReview)
	mux.HandleFunc("/register", h.PostRegister)
	mux.HandleFunc("/login", h.PostLogin)
	mux.HandleFunc("/watchlists", h.HandleWatchLists)
	mux.HandleFunc("/watchlists/movies", h.HandleWatchListMovies)
	mux.HandleFunc("/watchlists/rename", h.PostWatchListRename)
	mux.HandleFunc("/watchlists/share", h.PostWatchListShare)
	mux.HandleFunc("/watchlists/sorted", h.GetWatchListSorted)
	mux.HandleFunc("/watchlists/recommendations", h.GetWatchListRecommendations)
}

// GetMovie handles GET /movie requests.
func (h *Handler) GetMovie(w http.ResponseWriter, req *http.Request) {
	h.movieMetrics.Calls.Inc(1)
	rank, err := strconv.Atoi(req.FormValue("rank"))
	if err != nil {
		h.movieMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	movie, err := h.catalog.GetMovie(req.Context(), rank)
	if err != nil && errors.Is(err, catalog.ErrNotFound) {
		h.movieMetrics.NotFoundErrors.Inc(1)
		w.WriteHeader(http.StatusNotFound)
		return
	} else if err != nil {
		h.movieMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Movie lookup error", zap.Int("rank", rank), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.movieMetrics, movie)
}

// GetMovies handles GET /movies requests with a comma-separated ranks param.
func (h *Handler) GetMovies(w http.ResponseWriter, req *http.Request) {
	h.moviesMetrics.Calls.Inc(1)
	ranks, err := parseRanks(req.FormValue("ranks"))
	if err != nil {
		h.moviesMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	movies, err := h.catalog.GetMoviesByRank(req.Context(), ranks)
	if err != nil {
		h.moviesMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Movies lookup error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.moviesMetrics, movies)
}

// GetFirstMovie handles GET /movies/first requests.
func (h *Handler) GetFirstMovie(w http.ResponseWriter, req *http.Request) {
	h.moviesMetrics.Calls.Inc(1)
	movie, err := h.catalog.GetFirstMovie(req.Context())
	h.respondMovie(w, movie, err)
}

// GetLastMovie handles GET /movies/last requests.
func (h *Handler) GetLastMovie(w http.ResponseWriter, req *http.Request) {
	h.moviesMetrics.Calls.Inc(1)
	movie, err := h.catalog.GetLastMovie(req.Context())
	h.respondMovie(w, movie, err)
}

// GetNumberOfMovies handles GET /movies/count requests.
func (h *Handler) GetNumberOfMovies(w http.ResponseWriter, req *http.Request) {
	h.moviesMetrics.Calls.Inc(1)
	n, err := h.catalog.GetNumberOfMovies(req.Context())
	if err != nil {
		h.moviesMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Movie count error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.moviesMetrics, map[string]int{"count": n})
}

// GetGenres handles GET /genres requests.
func (h *Handler) GetGenres(w http.ResponseWriter, req *http.Request) {
	h.genresMetrics.Calls.Inc(1)
	genres, err := h.catalog.GetGenres(req.Context())
	if err != nil {
		h.genresMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Genres lookup error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.genresMetrics, genres)
}

// GetMovieRanksForGenre handles GET /genre requests.
func (h *Handler) GetMovieRanksForGenre(w http.ResponseWriter, req *http.Request) {
	h.genresMetrics.Calls.Inc(1)
	name := req.FormValue("name")
	if name == "" {
		h.genresMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	ranks, err := h.catalog.GetMovieRanksForGenre(req.Context(), name)
	if err != nil {
		h.genresMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Genre search error", zap.String("genre", name), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.genresMetrics, map[string][]int{"ranks": ranks})
}

// HandleReview handles GET and POST /review requests.
func (h *Handler) HandleReview(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		h.getReviews(w, req)
	case http.MethodPost:
		h.postReview(w, req)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (h *Handler) getReviews(w http.ResponseWriter, req *http.Request) {
	h.reviewMetrics.Calls.Inc(1)
	rank, err := strconv.Atoi(req.FormValue("rank"))
	if err != nil {
		h.reviewMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	reviews, err := h.catalog.GetReviewsForMovie(req.Context(), rank)
	if err != nil && errors.Is(err, catalog.ErrNotFound) {
		h.reviewMetrics.NotFoundErrors.Inc(1)
		w.WriteHeader(http.StatusNotFound)
		return
	} else if err != nil {
		h.reviewMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Reviews lookup error", zap.Int("rank", rank), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.reviewMetrics, reviews)
}

func (h *Handler) postReview(w http.ResponseWriter, req *http.Request) {
	h.reviewMetrics.Calls.Inc(1)
	username, ok := h.session(w, req, h.reviewMetrics)
	if !ok {
		return
	}
	rank, err := strconv.Atoi(req.FormValue("rank"))
	rating, ratingErr := strconv.Atoi(req.FormValue("rating"))
	text := req.FormValue("review_text")
	if err != nil || ratingErr != nil || text == "" {
		h.reviewMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	review, err := h.catalog.AddReview(req.Context(), username, rank, text, rating)
	if err != nil && errors.Is(err, catalog.ErrNotFound) {
		h.reviewMetrics.NotFoundErrors.Inc(1)
		w.WriteHeader(http.StatusNotFound)
		return
	} else if err != nil && errors.Is(err, catalog.ErrUnknownUser) {
		h.reviewMetrics.UnauthorizedErrors.Inc(1)
		w.WriteHeader(http.StatusUnauthorized)
		return
	} else if err != nil {
		h.reviewMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Review store error", zap.Int("rank", rank), zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.reviewMetrics, review)
}

// PostRegister handles POST /register requests.
func (h *Handler) PostRegister(w http.ResponseWriter, req *http.Request) {
	h.registerMetrics.Calls.Inc(1)
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	user, err := h.auth.Register(req.Context(), req.FormValue("username"), req.FormValue("password"))
	if err != nil && errors.Is(err, auth.ErrInvalidCredentials) {
		h.registerMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusBadRequest)
		return
	} else if err != nil && errors.Is(err, auth.ErrNameNotUnique) {
		h.registerMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusConflict)
		return
	} else if err != nil {
		h.registerMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Registration error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	h.respond(w, h.registerMetrics, map[string]string{"username": user.Username})
}

// PostLogin handles POST /login requests.
func (h *Handler) PostLogin(w http.ResponseWriter, req *http.Request) {
	h.loginMetrics.Calls.Inc(1)
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	token, err := h.auth.Authenticate(req.Context(), req.FormValue("username"), req.FormValue("password"))
	if err != nil && (errors.Is(err, auth.ErrUnknownUser) || errors.Is(err, auth.ErrAuthenticationFailed)) {
		h.loginMetrics.UnauthorizedErrors.Inc(1)
		w.WriteHeader(http.StatusUnauthorized)
		return
	} else if err != nil {
		h.loginMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Login error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.loginMetrics, map[string]string{"token": token})
}

// HandleWatchLists handles GET and POST /watchlists requests.
func (h *Handler) HandleWatchLists(w http.ResponseWriter, req *http.Request) {
	h.watchlistMetrics.Calls.Inc(1)
	username, ok := h.session(w, req, h.watchlistMetrics)
	if !ok {
		return
	}
	switch req.Method {
	case http.MethodGet:
		lists, err := h.watchlist.List(req.Context(), username)
		if err != nil {
			h.watchlistError(w, err)
			return
		}
		h.respond(w, h.watchlistMetrics, lists)
	case http.MethodPost:
		list, err := h.watchlist.Create(req.Context(), username, req.FormValue("name"))
		if err != nil {
			h.watchlistError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
		h.respond(w, h.watchlistMetrics, list)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

// HandleWatchListMovies handles POST and DELETE /watchlists/movies requests.
func (h *Handler) HandleWatchListMovies(w http.ResponseWriter, req *http.Request) {
	h.watchlistMetrics.Calls.Inc(1)
	username, ok := h.session(w, req, h.watchlistMetrics)
	if !ok {
		return
	}
	rank, err := strconv.Atoi(req.FormValue("rank"))
	name := req.FormValue("name")
	if err != nil || name == "" {
		h.watchlistMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch req.Method {
	case http.MethodPost:
		err = h.watchlist.AddMovie(req.Context(), username, name, rank)
	case http.MethodDelete:
		err = h.watchlist.RemoveMovie(req.Context(), username, name, rank)
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err != nil {
		h.watchlistError(w, err)
		return
	}
	h.watchlistMetrics.Successes.Inc(1)
	w.WriteHeader(http.StatusNoContent)
}

// PostWatchListRename handles POST /watchlists/rename requests.
func (h *Handler) PostWatchListRename(w http.ResponseWriter, req *http.Request) {
	h.watchlistMetrics.Calls.Inc(1)
	username, ok := h.session(w, req, h.watchlistMetrics)
	if !ok {
		return
	}
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := h.watchlist.Rename(req.Context(), username, req.FormValue("name"), req.FormValue("new_name")); err != nil {
		h.watchlistError(w, err)
		return
	}
	h.watchlistMetrics.Successes.Inc(1)
	w.WriteHeader(http.StatusNoContent)
}

// PostWatchListShare handles POST /watchlists/share requests.
func (h *Handler) PostWatchListShare(w http.ResponseWriter, req *http.Request) {
	h.watchlistMetrics.Calls.Inc(1)
	username, ok := h.session(w, req, h.watchlistMetrics)
	if !ok {
		return
	}
	if req.Method != http.MethodPost {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	list, err := h.watchlist.Share(req.Context(), username, req.FormValue("name"), req.FormValue("target"))
	if err != nil {
		h.watchlistError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	h.respond(w, h.watchlistMetrics, list)
}

// GetWatchListSorted handles GET /watchlists/sorted requests. The by param
// selects title, year or runtime order.
func (h *Handler) GetWatchListSorted(w http.ResponseWriter, req *http.Request) {
	h.watchlistMetrics.Calls.Inc(1)
	username, ok := h.session(w, req, h.watchlistMetrics)
	if !ok {
		return
	}
	name := req.FormValue("name")
	var movies []watchlist.Movie
	var err error
	switch req.FormValue("by") {
	case "title":
		movies, err = h.watchlist.SortedByTitle(req.Context(), username, name)
	case "year":
		movies, err = h.watchlist.SortedByYear(req.Context(), username, name)
	case "runtime":
		movies, err = h.watchlist.SortedByRuntime(req.Context(), username, name)
	default:
		h.watchlistMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err != nil {
		h.watchlistError(w, err)
		return
	}
	h.respond(w, h.watchlistMetrics, movies)
}

// GetWatchListRecommendations handles GET /watchlists/recommendations.
func (h *Handler) GetWatchListRecommendations(w http.ResponseWriter, req *http.Request) {
	h.watchlistMetrics.Calls.Inc(1)
	username, ok := h.session(w, req, h.watchlistMetrics)
	if !ok {
		return
	}
	movies, err := h.watchlist.Recommendations(req.Context(), username, req.FormValue("name"))
	if err != nil {
		h.watchlistError(w, err)
		return
	}
	h.respond(w, h.watchlistMetrics, movies)
}

// session extracts and validates the session token, from the Authorization
// header (Bearer scheme) or a token form value.
func (h *Handler) session(w http.ResponseWriter, req *http.Request, m *metrics.EndpointMetrics) (string, bool) {
	token := req.FormValue("token")
	if auth := req.Header.Get("Authorization"); auth != "" {
		token = strings.TrimPrefix(auth, "Bearer ")
	}
	if token == "" {
		m.UnauthorizedErrors.Inc(1)
		w.WriteHeader(http.StatusUnauthorized)
		return "", false
	}
	username, err := h.auth.ValidateToken(req.Context(), token)
	if err != nil {
		m.UnauthorizedErrors.Inc(1)
		w.WriteHeader(http.StatusUnauthorized)
		return "", false
	}
	return username, true
}

func (h *Handler) watchlistError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, watchlist.ErrNotFound):
		h.watchlistMetrics.NotFoundErrors.Inc(1)
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, watchlist.ErrUnknownUser):
		h.watchlistMetrics.UnauthorizedErrors.Inc(1)
		w.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, repository.ErrUnsupported):
		h.watchlistMetrics.InvalidArgumentErrors.Inc(1)
		w.WriteHeader(http.StatusNotImplemented)
	default:
		h.watchlistMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Watchlist operation error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *Handler) respondMovie(w http.ResponseWriter, movie *catalog.Movie, err error) {
	if err != nil && errors.Is(err, catalog.ErrNotFound) {
		h.moviesMetrics.NotFoundErrors.Inc(1)
		w.WriteHeader(http.StatusNotFound)
		return
	} else if err != nil {
		h.moviesMetrics.InternalErrors.Inc(1)
		h.logger.Warn("Movie lookup error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	h.respond(w, h.moviesMetrics, movie)
}

func (h *Handler) respond(w http.ResponseWriter, m *metrics.EndpointMetrics, body any) {
	if err := json.NewEncoder(w).Encode(body); err != nil {
		m.InternalErrors.Inc(1)
		h.logger.Warn("Response encode error", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	m.Successes.Inc(1)
}

func parseRanks(raw string) ([]int, error) {
	if raw == "" {
		return nil, errors.New("ranks required")
	}
	parts := strings.Split(raw, ",")
	ranks := make([]int, 0, len(parts))
	for _, p := range parts {
		rank, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		ranks = append(ranks, rank)
	}
	return ranks, nil
}
