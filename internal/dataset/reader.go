package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"moviecatalog/pkg/logging"
	"moviecatalog/pkg/model"
)

// naToken marks an absent numeric value in the dataset.
const naToken = "N/A"

// Column headers the movie CSV must carry.
const (
	colRank        = "Rank"
	colTitle       = "Title"
	colGenre       = "Genre"
	colDescription = "Description"
	colDirector    = "Director"
	colActors      = "Actors"
	colYear        = "Year"
	colRuntime     = "Runtime (Minutes)"
	colRating      = "Rating"
	colVotes       = "Votes"
	colRevenue     = "Revenue (Millions)"
	colMetascore   = "Metascore"
)

// Dataset holds the parsed movie graph. The supporting slices are unique by
// value equality, in first-seen order.
type Dataset struct {
	Movies    []*model.Movie
	Directors []model.Director
	Genres    []model.Genre
	Actors    []*model.Actor
}

// Reader parses the fixed-schema movie CSV into a Dataset.
type Reader struct {
	path   string
	logger *zap.Logger
}

// NewReader creates a reader for the CSV at path.
func NewReader(path string, logger *zap.Logger) *Reader {
	logger = logger.With(
		zap.String(logging.FieldComponent, "dataset-reader"),
	)
	return &Reader{path: path, logger: logger}
}

// Read parses the whole file. Numeric fields holding the N/A token are left
// nil; the sentinel string never reaches a typed field.
func (r *Reader) Read() (*Dataset, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	ds, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", r.path, err)
	}
	r.logger.Info("Loaded movie dataset",
		zap.Int("movies", len(ds.Movies)),
		zap.Int("directors", len(ds.Directors)),
		zap.Int("genres", len(ds.Genres)),
		zap.Int("actors", len(ds.Actors)),
	)
	return ds, nil
}

// Parse reads movie CSV rows from in.
func Parse(in io.Reader) (*Dataset, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		// the reference file carries a UTF-8 BOM
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	seenDirectors := map[string]bool{}
	seenGenres := map[string]bool{}
	seenActors := map[string]*model.Actor{}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		movie, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		// re-point cast members at the shared unique actors so the
		// dataset carries one object per name
		for i, a := range movie.Actors {
			if existing, ok := seenActors[a.FullName]; ok {
				movie.Actors[i] = existing
				continue
			}
			seenActors[a.FullName] = a
			ds.Actors = append(ds.Actors, a)
		}
		if !seenDirectors[movie.Director.FullName] {
			seenDirectors[movie.Director.FullName] = true
			ds.Directors = append(ds.Directors, movie.Director)
		}
		for _, g := range movie.Genres {
			if !seenGenres[g.Name] {
				seenGenres[g.Name] = true
				ds.Genres = append(ds.Genres, g)
			}
		}
		ds.Movies = append(ds.Movies, movie)
	}
	return ds, nil
}

func columnIndex(header []string) (map[string]int, error) {
	required := []string{
		colRank, colTitle, colGenre, colDescription, colDirector, colActors,
		colYear, colRuntime, colRating, colVotes, colRevenue, colMetascore,
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("dataset is missing column %q", name)
		}
	}
	return cols, nil
}

func parseRow(record []string, cols map[string]int) (*model.Movie, error) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rank, err := strconv.Atoi(field(colRank))
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	year, err := strconv.Atoi(field(colYear))
	if err != nil {
		return nil, fmt.Errorf("year: %w", err)
	}
	runtime, err := strconv.Atoi(field(colRuntime))
	if err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}

	movie := model.NewMovie(field(colTitle), year)
	movie.Rank = rank
	movie.Description = field(colDescription)
	movie.Director = model.NewDirector(field(colDirector))
	if err := movie.SetRuntimeMinutes(runtime); err != nil {
		return nil, err
	}
	for _, name := range strings.Split(field(colGenre), ",") {
		movie.AddGenre(model.NewGenre(name))
	}
	for _, name := range strings.Split(field(colActors), ",") {
		movie.AddActor(model.NewActor(name))
	}

	if movie.Rating, err = optionalFloat(field(colRating)); err != nil {
		return nil, fmt.Errorf("rating: %w", err)
	}
	if movie.Votes, err = optionalInt(field(colVotes)); err != nil {
		return nil, fmt.Errorf("votes: %w", err)
	}
	if movie.Revenue, err = optionalFloat(field(colRevenue)); err != nil {
		return nil, fmt.Errorf("revenue: %w", err)
	}
	if movie.Metascore, err = optionalInt(field(colMetascore)); err != nil {
		return nil, fmt.Errorf("metascore: %w", err)
	}
	return movie, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" || s == naToken {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optionalInt(s string) (*int, error) {
	if s == "" || s == naToken {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
