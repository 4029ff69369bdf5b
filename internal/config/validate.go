// Ratingrec - User-Based Collaborative Filtering Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ratingrec

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/ratingrec/internal/dataset"
	"github.com/tomtom215/ratingrec/internal/validation"
)

// Validate checks field ranges, then the rules that span fields.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	validators := []func() error{
		c.validateRecommend,
		c.validateDataset,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if err := c.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

func (c *Config) validateDataset() error {
	d := c.Dataset
	switch dataset.Kind(d.Provider) {
	case dataset.KindJSON:
		if d.JSONDir == "" {
			return errors.New("dataset.json_dir is required for the json provider")
		}
	case dataset.KindBadger:
		if d.BadgerDir == "" {
			return errors.New("dataset.badger_dir is required for the badger provider")
		}
	case dataset.KindDuckDB:
		if d.DuckDBPath == "" {
			return errors.New("dataset.duckdb_path is required for the duckdb provider")
		}
	}
	if d.BuildIfMissing && d.SourceDir == "" {
		return errors.New("dataset.source_dir is required when dataset.build_if_missing is set")
	}
	return nil
}
