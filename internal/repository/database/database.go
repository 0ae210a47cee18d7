package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"moviecatalog/configs"
	"moviecatalog/internal/repository"
	"moviecatalog/pkg/logging"
	"moviecatalog/pkg/model"
)

const tracerID = "catalog-repository-database"

//go:embed migrations/*.sql
var embedMigrations embed.FS

// mysqlDuplicateEntry is the server error number for a duplicate key.
const mysqlDuplicateEntry = 1062

// Repository implements the catalogue contract over a relational schema
// through database/sql, with explicit column mapping and a transaction per
// mutating call. Surrogate keys are assigned as max(id)+1 inside the
// transaction; the dataset is reference data with a single writer.
//
// Watchlists are deliberately not supported by this backend: every watchlist
// method returns repository.ErrUnsupported rather than silently succeeding.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open connects to the configured database (mysql or sqlite) and returns a
// repository over it.
func Open(config configs.DatabaseConfig, logger *zap.Logger) (*Repository, error) {
	logger = logger.With(
		zap.String(logging.FieldComponent, "repository"),
		zap.String(logging.FieldType, "database"),
	)
	var (
		db  *sql.DB
		err error
	)
	switch config.Driver {
	case "mysql":
		logger.Info("Connecting to mysql", zap.String("host", config.Mysql.Host))
		db, err = sql.Open("mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			config.Mysql.User, config.Mysql.Pass, config.Mysql.Host, config.Mysql.Port, config.Mysql.Name))
	case "sqlite":
		logger.Info("Opening sqlite database", zap.String("path", config.Sqlite.Path))
		db, err = sql.Open("sqlite3", config.Sqlite.Path+"?_foreign_keys=on")
	default:
		return nil, fmt.Errorf("unknown database driver %q", config.Driver)
	}
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, logger: logger}, nil
}

// New wraps an existing connection.
func New(db *sql.DB, logger *zap.Logger) *Repository {
	logger = logger.With(
		zap.String(logging.FieldComponent, "repository"),
		zap.String(logging.FieldType, "database"),
	)
	return &Repository{db: db, logger: logger}
}

// DB exposes the underlying connection, used by the population job.
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Migrate brings the schema up to date using the embedded migrations.
func Migrate(db *sql.DB, dialect string) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// inTx runs fn inside a transaction: commit on success, roll back on error.
// Multi-step mutations are either fully visible or fully absent.
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Warn("Rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

func nextID(ctx context.Context, tx *sql.Tx, table string) (int, error) {
	var id int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) + 1 FROM "+table).Scan(&id); err != nil {
		return 0, fmt.Errorf("next id for %s: %w", table, err)
	}
	return id, nil
}

// AddDirector inserts the director unless one with the same name exists.
func (r *Repository) AddDirector(ctx context.Context, d model.Director) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := r.directorID(ctx, tx, d.FullName)
		return err
	})
}

// GetDirector returns the first director with the given name.
func (r *Repository) GetDirector(ctx context.Context, fullName string) (model.Director, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		"SELECT director_full_name FROM directors WHERE director_full_name = ?", fullName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Director{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Director{}, err
	}
	return model.Director{FullName: name}, nil
}

// AddGenre inserts the genre unless one with the same name exists.
func (r *Repository) AddGenre(ctx context.Context, g model.Genre) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := r.genreID(ctx, tx, g.Name)
		return err
	})
}

// GetGenres returns every genre in surrogate-key order.
func (r *Repository) GetGenres(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT genre_name FROM genres ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var genres []model.Genre
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		genres = append(genres, model.Genre{Name: name})
	}
	return genres, rows.Err()
}

// AddActor inserts the actor unless one with the same name exists.
func (r *Repository) AddActor(ctx context.Context, a *model.Actor) error {
	if a == nil {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := r.actorID(ctx, tx, a.FullName)
		return err
	})
}

// GetActor returns the first actor with the given name.
func (r *Repository) GetActor(ctx context.Context, fullName string) (*model.Actor, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		"SELECT actor_full_name FROM actors WHERE actor_full_name = ?", fullName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return model.NewActor(name), nil
}

// AddMovie inserts the movie under id = rank together with its director,
// cast and genre associations. A rank collision fails the whole insert with
// ErrDuplicateKey.
func (r *Repository) AddMovie(ctx context.Context, m *model.Movie) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/AddMovie")
	defer span.End()
	if m == nil {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		directorID, err := r.directorID(ctx, tx, m.Director.FullName)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movies
			 (id, title, release_year, description, director_id, runtime_minutes,
			  rating, votes, revenue_in_millions, metascore)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Rank, m.Title, m.ReleaseYear, m.Description, directorID, m.RuntimeMinutes,
			m.Rating, m.Votes, m.Revenue, m.Metascore); err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("movie rank %d: %w", m.Rank, repository.ErrDuplicateKey)
			}
			return err
		}
		for _, a := range m.Actors {
			actorID, err := r.actorID(ctx, tx, a.FullName)
			if err != nil {
				return err
			}
			id, err := nextID(ctx, tx, "movie_actors")
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO movie_actors (id, movie_id, actor_id) VALUES (?, ?, ?)",
				id, m.Rank, actorID); err != nil {
				return err
			}
		}
		for _, g := range m.Genres {
			genreID, err := r.genreID(ctx, tx, g.Name)
			if err != nil {
				return err
			}
			id, err := nextID(ctx, tx, "movie_genres")
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO movie_genres (id, movie_id, genre_id) VALUES (?, ?, ?)",
				id, m.Rank, genreID); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetMovie returns the movie stored under the given rank, with its director,
// cast and genres resolved.
func (r *Repository) GetMovie(ctx context.Context, rank int) (*model.Movie, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/GetMovie")
	defer span.End()
	var (
		title       string
		releaseYear int
		description string
		directorID  sql.NullInt64
		runtime     int
		movie       model.Movie
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT title, release_year, description, director_id, runtime_minutes,
		        rating, votes, revenue_in_millions, metascore
		 FROM movies WHERE id = ?`, rank).
		Scan(&title, &releaseYear, &description, &directorID, &runtime,
			&movie.Rating, &movie.Votes, &movie.Revenue, &movie.Metascore)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	movie.Rank = rank
	movie.Title = title
	movie.ReleaseYear = releaseYear
	movie.Description = description
	movie.RuntimeMinutes = runtime

	if directorID.Valid {
		var name string
		if err := r.db.QueryRowContext(ctx,
			"SELECT director_full_name FROM directors WHERE id = ?", directorID.Int64).Scan(&name); err != nil {
			return nil, err
		}
		movie.Director = model.Director{FullName: name}
	}

	actorRows, err := r.db.QueryContext(ctx,
		`SELECT a.actor_full_name FROM actors a
		 JOIN movie_actors ma ON ma.actor_id = a.id
		 WHERE ma.movie_id = ? ORDER BY ma.id`, rank)
	if err != nil {
		return nil, err
	}
	defer actorRows.Close()
	for actorRows.Next() {
		var name string
		if err := actorRows.Scan(&name); err != nil {
			return nil, err
		}
		movie.Actors = append(movie.Actors, model.NewActor(name))
	}
	if err := actorRows.Err(); err != nil {
		return nil, err
	}

	genreRows, err := r.db.QueryContext(ctx,
		`SELECT g.genre_name FROM genres g
		 JOIN movie_genres mg ON mg.genre_id = g.id
		 WHERE mg.movie_id = ? ORDER BY mg.id`, rank)
	if err != nil {
		return nil, err
	}
	defer genreRows.Close()
	for genreRows.Next() {
		var name string
		if err := genreRows.Scan(&name); err != nil {
			return nil, err
		}
		movie.Genres = append(movie.Genres, model.Genre{Name: name})
	}
	if err := genreRows.Err(); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetNumberOfMovies returns the stored movie count.
func (r *Repository) GetNumberOfMovies(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetFirstMovie returns the movie with the lowest primary key, which equals
// load order for the rank-ascending reference dataset.
func (r *Repository) GetFirstMovie(ctx context.Context) (*model.Movie, error) {
	return r.movieAtEnd(ctx, "ASC")
}

// GetLastMovie returns the movie with the highest primary key.
func (r *Repository) GetLastMovie(ctx context.Context) (*model.Movie, error) {
	return r.movieAtEnd(ctx, "DESC")
}

func (r *Repository) movieAtEnd(ctx context.Context, direction string) (*model.Movie, error) {
	var rank int
	err := r.db.QueryRowContext(ctx, "SELECT id FROM movies ORDER BY id "+direction+" LIMIT 1").Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetMovie(ctx, rank)
}

// GetMoviesByRank returns the movies for the given ranks, preserving the
// input order and skipping unknown ranks, matching the memory backend.
func (r *Repository) GetMoviesByRank(ctx context.Context, ranks []int) ([]*model.Movie, error) {
	movies := make([]*model.Movie, 0, len(ranks))
	for _, rank := range ranks {
		m, err := r.GetMovie(ctx, rank)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, nil
}

// GetMovieRanksForGenre resolves the genre name to its surrogate key and then
// scans the association table. Two queries on purpose: the join table has no
// mapped entity of its own.
func (r *Repository) GetMovieRanksForGenre(ctx context.Context, genreName string) ([]int, error) {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/GetMovieRanksForGenre")
	defer span.End()
	ranks := []int{}
	var genreID int
	err := r.db.QueryRowContext(ctx,
		"SELECT id FROM genres WHERE genre_name = ?", genreName).Scan(&genreID)
	if errors.Is(err, sql.ErrNoRows) {
		return ranks, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT movie_id FROM movie_genres WHERE genre_id = ? ORDER BY movie_id", genreID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rank int
		if err := rows.Scan(&rank); err != nil {
			return nil, err
		}
		ranks = append(ranks, rank)
	}
	return ranks, rows.Err()
}

// AddReview persists a review. A nil movie or one absent from the movies
// table is rejected with ErrNoMovieForReview before anything is written.
func (r *Repository) AddReview(ctx context.Context, review *model.Review) error {
	ctx, span := otel.Tracer(tracerID).Start(ctx, "Repository/AddReview")
	defer span.End()
	if review == nil || review.Movie == nil {
		return repository.ErrNoMovieForReview
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx,
			"SELECT 1 FROM movies WHERE id = ?", review.Movie.Rank).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Warn("Rejecting review for an absent movie", zap.Int("rank", review.Movie.Rank))
			return repository.ErrNoMovieForReview
		}
		if err != nil {
			return err
		}

		var userID any
		if review.User != nil {
			var id int
			err := tx.QueryRowContext(ctx,
				"SELECT id FROM users WHERE username = ?", review.User.Username).Scan(&id)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			if err == nil {
				userID = id
			}
		}

		id, err := nextID(ctx, tx, "reviews")
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO reviews (id, movie_id, review_text, rating, timestamp, user_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, review.Movie.Rank, review.Text, review.Rating, review.Timestamp, userID)
		return err
	})
}

// GetReviews returns every stored review with its movie resolved.
func (r *Repository) GetReviews(ctx context.Context) ([]*model.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rv.movie_id, rv.review_text, rv.rating, rv.timestamp, u.username, u.password
		 FROM reviews rv LEFT JOIN users u ON u.id = rv.user_id
		 ORDER BY rv.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type reviewRow struct {
		movieRank int
		review    *model.Review
	}
	var loaded []reviewRow
	for rows.Next() {
		var (
			rr       reviewRow
			username sql.NullString
			password sql.NullString
		)
		rr.review = &model.Review{}
		if err := rows.Scan(&rr.movieRank, &rr.review.Text, &rr.review.Rating, &rr.review.Timestamp,
			&username, &password); err != nil {
			return nil, err
		}
		if username.Valid {
			rr.review.User = &model.User{Username: username.String, Password: password.String}
		}
		loaded = append(loaded, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reviews := make([]*model.Review, 0, len(loaded))
	for _, rr := range loaded {
		movie, err := r.GetMovie(ctx, rr.movieRank)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		rr.review.Movie = movie
		reviews = append(reviews, rr.review)
	}
	return reviews, nil
}

// AddUser inserts a user. A duplicate username violates the unique index and
// surfaces as ErrDuplicateKey.
func (r *Repository) AddUser(ctx context.Context, u *model.User) error {
	if u == nil {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx, "users")
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, password, time_spent_watching_movies_minutes)
			 VALUES (?, ?, ?, ?)`,
			id, u.Username, u.Password, u.TimeSpentWatchingMovies); err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("username %q: %w", u.Username, repository.ErrDuplicateKey)
			}
			return err
		}
		return nil
	})
}

// GetUser returns the stored user scalars. The argument is matched as
// stored; callers pass lower-cased usernames.
func (r *Repository) GetUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		`SELECT username, password, time_spent_watching_movies_minutes
		 FROM users WHERE username = ?`, username).
		Scan(&u.Username, &u.Password, &u.TimeSpentWatchingMovies)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AddWatchList is not supported by the relational backend.
func (r *Repository) AddWatchList(_ context.Context, _ *model.WatchList) error {
	return fmt.Errorf("watchlists: %w", repository.ErrUnsupported)
}

// GetWatchLists is not supported by the relational backend.
func (r *Repository) GetWatchLists(_ context.Context, _ *model.User) ([]*model.WatchList, error) {
	return nil, fmt.Errorf("watchlists: %w", repository.ErrUnsupported)
}

func (r *Repository) directorID(ctx context.Context, tx *sql.Tx, fullName string) (int, error) {
	return r.lookupOrInsert(ctx, tx, "directors", "director_full_name", fullName)
}

func (r *Repository) genreID(ctx context.Context, tx *sql.Tx, name string) (int, error) {
	return r.lookupOrInsert(ctx, tx, "genres", "genre_name", name)
}

func (r *Repository) actorID(ctx context.Context, tx *sql.Tx, fullName string) (int, error) {
	return r.lookupOrInsert(ctx, tx, "actors", "actor_full_name", fullName)
}

func (r *Repository) lookupOrInsert(ctx context.Context, tx *sql.Tx, table, column, value string) (int, error) {
	var id int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id FROM %s WHERE %s = ?", table, column), value).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	id, err = nextID(ctx, tx, table)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (id, %s) VALUES (?, ?)", table, column), id, value); err != nil {
		return 0, err
	}
	return id, nil
}
