// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ratingrec/internal/recommend"
)

const (
	trainFile = "train.json"
	testFile  = "test.json"
)

// JSONProvider stores each split as a nested {"user": {"item": rating}}
// object in Dir/train.json and Dir/test.json.
type JSONProvider struct {
	Dir string
}

// NewJSONProvider creates a JSONProvider rooted at dir.
func NewJSONProvider(dir string) *JSONProvider {
	return &JSONProvider{Dir: dir}
}

// Name implements Provider.
func (p *JSONProvider) Name() string { return string(KindJSON) }

// Load reads both split files. If either file is missing the split is
// reported as not found.
func (p *JSONProvider) Load(ctx context.Context) (*recommend.Dataset, bool, error) {
	ds := recommend.NewDataset()
	for _, f := range []struct {
		name string
		dst  *recommend.Ratings
	}{
		{trainFile, &ds.Train},
		{testFile, &ds.Test},
	} {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		data, err := os.ReadFile(filepath.Join(p.Dir, f.name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("read %s: %w", f.name, err)
		}
		var r recommend.Ratings
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", f.name, err)
		}
		if r == nil {
			r = make(recommend.Ratings)
		}
		*f.dst = r
	}
	return ds, true, nil
}

// Save writes both splits. Each file is written to a temporary file and
// renamed into place.
func (p *JSONProvider) Save(ctx context.Context, ds *recommend.Dataset) error {
	if ds == nil {
		return recommend.ErrInvalidDataset
	}
	if err := os.MkdirAll(p.Dir, 0o750); err != nil {
		return fmt.Errorf("create dataset dir: %w", err)
	}
	if err := p.writeAtomic(ctx, trainFile, ds.Train); err != nil {
		return err
	}
	return p.writeAtomic(ctx, testFile, ds.Test)
}

func (p *JSONProvider) writeAtomic(ctx context.Context, name string, r recommend.Ratings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil {
		r = recommend.Ratings{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(p.Dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(p.Dir, name)); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Close implements Provider.
func (p *JSONProvider) Close() error { return nil }
