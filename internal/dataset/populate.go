package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"moviecatalog/internal/repository"
	"moviecatalog/pkg/model"
)

// File names expected inside the data directory.
const (
	MoviesFile  = "Data1000Movies.csv"
	UsersFile   = "users.csv"
	ReviewsFile = "reviews.csv"
)

// PopulateMemory fills a repository from the data directory: the movie CSV
// plus the optional user and review seed files.
func PopulateMemory(ctx context.Context, dataPath string, repo repository.Repository, logger *zap.Logger) error {
	ds, err := NewReader(filepath.Join(dataPath, MoviesFile), logger).Read()
	if err != nil {
		return err
	}
	for _, d := range ds.Directors {
		if err := repo.AddDirector(ctx, d); err != nil {
			return err
		}
	}
	for _, g := range ds.Genres {
		if err := repo.AddGenre(ctx, g); err != nil {
			return err
		}
	}
	for _, a := range ds.Actors {
		if err := repo.AddActor(ctx, a); err != nil {
			return err
		}
	}
	for _, m := range ds.Movies {
		if err := repo.AddMovie(ctx, m); err != nil {
			return err
		}
	}

	users, err := readSeedUsers(filepath.Join(dataPath, UsersFile))
	if err != nil {
		return err
	}
	byID := map[int]*model.User{}
	for _, seed := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		u := model.NewUser(seed.username, string(hash))
		if err := repo.AddUser(ctx, u); err != nil {
			return err
		}
		byID[seed.id] = u
	}

	reviews, err := readSeedReviews(filepath.Join(dataPath, ReviewsFile))
	if err != nil {
		return err
	}
	for _, seed := range reviews {
		movie, err := repo.GetMovie(ctx, seed.movieRank)
		if err != nil {
			return fmt.Errorf("seed review: movie rank %d: %w", seed.movieRank, err)
		}
		review := model.NewReview(movie, seed.text, seed.rating)
		if err := repo.AddReview(ctx, review); err != nil {
			return err
		}
		if u, ok := byID[seed.userID]; ok {
			u.AddReview(review)
		}
	}
	return nil
}

// Populate runs the relational ETL: a pre-pass over the parsed dataset builds
// name to surrogate-key maps in first-seen order, then movies (id = rank) and
// the many-to-many join rows are inserted, then the user and review seeds.
// Everything runs in one transaction against an assumed-empty schema; the job
// is not idempotent and must not be re-run against populated tables.
func Populate(ctx context.Context, db *sql.DB, dataPath string, logger *zap.Logger) error {
	ds, err := NewReader(filepath.Join(dataPath, MoviesFile), logger).Read()
	if err != nil {
		return err
	}
	users, err := readSeedUsers(filepath.Join(dataPath, UsersFile))
	if err != nil {
		return err
	}
	reviews, err := readSeedReviews(filepath.Join(dataPath, ReviewsFile))
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin populate tx: %w", err)
	}
	defer tx.Rollback()

	directorKeys := map[string]int{}
	for i, d := range ds.Directors {
		directorKeys[d.FullName] = i + 1
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO directors (id, director_full_name) VALUES (?, ?)",
			i+1, d.FullName); err != nil {
			return fmt.Errorf("insert director: %w", err)
		}
	}
	genreKeys := map[string]int{}
	for i, g := range ds.Genres {
		genreKeys[g.Name] = i + 1
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO genres (id, genre_name) VALUES (?, ?)",
			i+1, g.Name); err != nil {
			return fmt.Errorf("insert genre: %w", err)
		}
	}
	actorKeys := map[string]int{}
	for i, a := range ds.Actors {
		actorKeys[a.FullName] = i + 1
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO actors (id, actor_full_name) VALUES (?, ?)",
			i+1, a.FullName); err != nil {
			return fmt.Errorf("insert actor: %w", err)
		}
	}

	movieActorKey := 0
	movieGenreKey := 0
	for _, m := range ds.Movies {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO movies
			 (id, title, release_year, description, director_id, runtime_minutes,
			  rating, votes, revenue_in_millions, metascore)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Rank, m.Title, m.ReleaseYear, m.Description,
			directorKeys[m.Director.FullName], m.RuntimeMinutes,
			m.Rating, m.Votes, m.Revenue, m.Metascore); err != nil {
			return fmt.Errorf("insert movie %d: %w", m.Rank, err)
		}
		for _, a := range m.Actors {
			movieActorKey++
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO movie_actors (id, movie_id, actor_id) VALUES (?, ?, ?)",
				movieActorKey, m.Rank, actorKeys[a.FullName]); err != nil {
				return fmt.Errorf("insert movie actor: %w", err)
			}
		}
		for _, g := range m.Genres {
			movieGenreKey++
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO movie_genres (id, movie_id, genre_id) VALUES (?, ?, ?)",
				movieGenreKey, m.Rank, genreKeys[g.Name]); err != nil {
				return fmt.Errorf("insert movie genre: %w", err)
			}
		}
	}

	for _, seed := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, username, password, time_spent_watching_movies_minutes)
			 VALUES (?, ?, ?, 0)`,
			seed.id, strings.ToLower(seed.username), string(hash)); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
	}
	for i, seed := range reviews {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reviews (id, movie_id, review_text, rating, timestamp, user_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			i+1, seed.movieRank, seed.text, seed.rating, time.Now(), seed.userID); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
	}
	return tx.Commit()
}

type seedUser struct {
	id       int
	username string
	password string
}

type seedReview struct {
	movieRank int
	text      string
	rating    int
	userID    int
}

// readSeedUsers parses the id,username,password seed file. A missing file is
// not an error; there is just nothing to seed.
func readSeedUsers(path string) ([]seedUser, error) {
	rows, err := readSeedRows(path, 3)
	if err != nil || rows == nil {
		return nil, err
	}
	users := make([]seedUser, 0, len(rows))
	for _, row := range rows {
		id, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, fmt.Errorf("seed user id: %w", err)
		}
		users = append(users, seedUser{id: id, username: row[1], password: row[2]})
	}
	return users, nil
}

// readSeedReviews parses the id,movie_id,review_text,rating,user_id seed file.
func readSeedReviews(path string) ([]seedReview, error) {
	rows, err := readSeedRows(path, 5)
	if err != nil || rows == nil {
		return nil, err
	}
	reviews := make([]seedReview, 0, len(rows))
	for _, row := range rows {
		movieRank, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("seed review movie id: %w", err)
		}
		rating, err := strconv.Atoi(row[3])
		if err != nil {
			return nil, fmt.Errorf("seed review rating: %w", err)
		}
		userID, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("seed review user id: %w", err)
		}
		reviews = append(reviews, seedReview{
			movieRank: movieRank,
			text:      row[2],
			rating:    rating,
			userID:    userID,
		})
	}
	return reviews, nil
}

func readSeedRows(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = fields
	if _, err := reader.Read(); err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("read seed header: %w", err)
	}
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read seed row: %w", err)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		rows = append(rows, record)
	}
	return rows, nil
}
