// Stellara ML Pipeline - Behavioral Model Training and Serving
// Copyright 2026 Stellara
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stellara/mlpipeline

package training

import (
	"context"
	"strings"
)

// CategoryPrefix marks one-hot encoded item category columns in a
// dataset schema, e.g. "cat_finance".
const CategoryPrefix = "cat_"

// Dataset is an ordered collection of feature rows plus their schema.
// It is produced fresh by a FeatureSource for each training cycle and is
// owned solely by the run that requested it; nothing mutates it after
// construction.
type Dataset struct {
	// Schema is the ordered list of feature column names. Rows are
	// aligned to it index for index.
	Schema []string

	// Rows holds one feature vector per behavioral record.
	Rows [][]float64

	// Engaged is the per-row engagement label.
	Engaged []bool

	// ItemIDs and UserIDs carry the identity columns per row; they are
	// not features.
	ItemIDs []string
	UserIDs []string
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// CategoryColumns returns the schema indices and names of the one-hot
// category columns, in schema order.
func (d *Dataset) CategoryColumns() (indices []int, names []string) {
	for i, name := range d.Schema {
		if strings.HasPrefix(name, CategoryPrefix) {
			indices = append(indices, i)
			names = append(names, name)
		}
	}
	return indices, names
}

// FeatureSource produces a processed dataset on demand. Implementations
// may block on I/O; the retrain coordinator is the only caller.
type FeatureSource interface {
	Dataset(ctx context.Context) (*Dataset, error)
}
