// Filmrec - Latent Factor Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/filmrec

package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// cancelCheckInterval is how many rows are parsed between context checks.
const cancelCheckInterval = 10000

// Movie is one row of movies.csv.
type Movie struct {
	ID     int64
	Title  string
	Genres string
}

// RawRating is one row of ratings.csv.
type RawRating struct {
	UserID    int64
	MovieID   int64
	Rating    float64
	Timestamp time.Time
}

// ParseError locates a malformed value in an input file.
type ParseError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: column %s: %v", e.File, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing required column")

// table reads a headed CSV and resolves required columns by name.
type table struct {
	file    string
	reader  *csv.Reader
	columns map[string]int
}

func openTable(r io.Reader, file string, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{File: file, Line: 1, Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, wrapCSVError(file, err)
	}

	t := &table{file: file, reader: reader, columns: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		t.columns[strings.ToLower(name)] = i
	}
	for _, name := range required {
		if _, ok := t.columns[strings.ToLower(name)]; !ok {
			return nil, &ParseError{File: file, Line: 1, Column: name, Err: ErrMissingColumn}
		}
	}
	return t, nil
}

// next returns the next record and its 1-based line number, or io.EOF.
func (t *table) next() ([]string, int, error) {
	record, err := t.reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, wrapCSVError(t.file, err)
	}
	line, _ := t.reader.FieldPos(0)
	return record, line, nil
}

func (t *table) field(record []string, name string) string {
	return strings.TrimSpace(record[t.columns[strings.ToLower(name)]])
}

func (t *table) int64Field(record []string, line int, name string) (int64, error) {
	v, err := strconv.ParseInt(t.field(record, name), 10, 64)
	if err != nil {
		return 0, &ParseError{File: t.file, Line: line, Column: name, Err: err}
	}
	return v, nil
}

func wrapCSVError(file string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{File: file, Line: csvErr.Line, Err: csvErr.Err}
	}
	return fmt.Errorf("read %s: %w", file, err)
}

// ReadMovies parses a movies.csv stream (movieId,title,genres). When an id
// repeats, the first row wins.
func ReadMovies(ctx context.Context, r io.Reader, file string) (map[int64]Movie, error) {
	t, err := openTable(r, file, "movieId", "title")
	if err != nil {
		return nil, err
	}
	_, hasGenres := t.columns["genres"]

	movies := make(map[int64]Movie)
	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, line, err := t.next()
		if err == io.EOF {
			return movies, nil
		}
		if err != nil {
			return nil, err
		}

		id, err := t.int64Field(record, line, "movieId")
		if err != nil {
			return nil, err
		}
		if _, seen := movies[id]; seen {
			continue
		}
		m := Movie{ID: id, Title: t.field(record, "title")}
		if hasGenres {
			m.Genres = t.field(record, "genres")
		}
		movies[id] = m
	}
}

// ReadRatings parses a ratings.csv stream (userId,movieId,rating,timestamp).
// The timestamp column is optional and holds unix seconds.
func ReadRatings(ctx context.Context, r io.Reader, file string) ([]RawRating, error) {
	t, err := openTable(r, file, "userId", "movieId", "rating")
	if err != nil {
		return nil, err
	}
	_, hasTimestamp := t.columns["timestamp"]

	var ratings []RawRating
	for n := 0; ; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, line, err := t.next()
		if err == io.EOF {
			return ratings, nil
		}
		if err != nil {
			return nil, err
		}

		var rr RawRating
		if rr.UserID, err = t.int64Field(record, line, "userId"); err != nil {
			return nil, err
		}
		if rr.MovieID, err = t.int64Field(record, line, "movieId"); err != nil {
			return nil, err
		}
		rr.Rating, err = strconv.ParseFloat(t.field(record, "rating"), 64)
		if err != nil {
			return nil, &ParseError{File: file, Line: line, Column: "rating", Err: err}
		}
		if hasTimestamp && t.field(record, "timestamp") != "" {
			secs, err := t.int64Field(record, line, "timestamp")
			if err != nil {
				return nil, err
			}
			rr.Timestamp = time.Unix(secs, 0).UTC()
		}
		ratings = append(ratings, rr)
	}
}
