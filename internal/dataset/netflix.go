// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/ratingrec/internal/recommend"
)

// Record is a single rating read from a source.
type Record struct {
	User   recommend.UserID
	Item   recommend.ItemID
	Rating recommend.Rating
}

// Source yields raw ratings in a deterministic order.
type Source interface {
	// Users returns the distinct users of the source, sorted.
	Users(ctx context.Context) ([]recommend.UserID, error)

	// Scan calls fn for every record. Returning an error from fn stops the scan.
	Scan(ctx context.Context, fn func(Record) error) error
}

var movieFilePattern = regexp.MustCompile(`^mv_(\d+)\.txt$`)

// NetflixSource reads a directory in the Netflix Prize training_set layout:
// one mv_<movie>.txt file per movie, a "<movie>:" header line, then
// "user,rating,date" lines.
type NetflixSource struct {
	Dir string

	// MaxFiles limits how many files (in name order) are read. Zero reads all.
	MaxFiles int

	// Workers bounds parallel file parsing. Zero uses GOMAXPROCS.
	Workers int

	// Progress, if set, is called after each file is emitted. Users reports
	// under PhaseUsers and Scan under PhaseRatings.
	Progress func(phase string, done, total int)
}

// Progress phases reported by NetflixSource.
const (
	PhaseUsers   = "collect-users"
	PhaseRatings = "split"
)

type movieFile struct {
	path string
	item recommend.ItemID
}

func (s *NetflixSource) files() ([]movieFile, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	var files []movieFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := movieFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("movie file %s: %w", e.Name(), err)
		}
		files = append(files, movieFile{
			path: filepath.Join(s.Dir, e.Name()),
			item: recommend.ItemID(strconv.FormatUint(id, 10)),
		})
	}
	slices.SortFunc(files, func(a, b movieFile) int { return strings.Compare(a.path, b.path) })
	if s.MaxFiles > 0 && len(files) > s.MaxFiles {
		files = files[:s.MaxFiles]
	}
	return files, nil
}

// Users implements Source.
func (s *NetflixSource) Users(ctx context.Context) ([]recommend.UserID, error) {
	seen := make(map[recommend.UserID]struct{})
	err := s.scan(ctx, PhaseUsers, func(r Record) error {
		seen[r.User] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	users := make([]recommend.UserID, 0, len(seen))
	for u := range seen {
		users = append(users, u)
	}
	slices.Sort(users)
	return users, nil
}

// Scan implements Source. Files are parsed in parallel in windows of a few
// files per worker, and records are emitted in file order.
func (s *NetflixSource) Scan(ctx context.Context, fn func(Record) error) error {
	return s.scan(ctx, PhaseRatings, fn)
}

func (s *NetflixSource) scan(ctx context.Context, phase string, fn func(Record) error) error {
	files, err := s.files()
	if err != nil {
		return err
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	window := workers * 4

	for start := 0; start < len(files); start += window {
		batch := files[start:min(start+window, len(files))]
		parsed := make([][]Record, len(batch))

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, f := range batch {
			g.Go(func() error {
				recs, err := parseMovieFile(gCtx, f)
				if err != nil {
					return err
				}
				parsed[i] = recs
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, recs := range parsed {
			for _, r := range recs {
				if err := fn(r); err != nil {
					return err
				}
			}
			if s.Progress != nil {
				s.Progress(phase, start+i+1, len(files))
			}
		}
	}
	return ctx.Err()
}

func parseMovieFile(ctx context.Context, f movieFile) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	defer fh.Close()

	var recs []Record
	sc := bufio.NewScanner(fh)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasSuffix(text, ":") {
			continue
		}
		rec, err := parseRatingLine(text, f.item)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filepath.Base(f.path), line, err)
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return recs, nil
}

func parseRatingLine(text string, item recommend.ItemID) (Record, error) {
	fields := strings.Split(text, ",")
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("malformed record %q: want user,rating,date", text)
	}
	user := strings.TrimSpace(fields[0])
	if user == "" {
		return Record{}, fmt.Errorf("malformed record %q: empty user", text)
	}
	v, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Record{}, fmt.Errorf("malformed rating in %q: %w", text, err)
	}
	r := recommend.Rating(v)
	if !r.Valid() {
		return Record{}, &recommend.InvalidRatingError{UserID: recommend.UserID(user), ItemID: item, Rating: r}
	}
	return Record{User: recommend.UserID(user), Item: item, Rating: r}, nil
}
