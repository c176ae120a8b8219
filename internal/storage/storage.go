// Package storage defines the export backends a finished run hands its
// cleaned leads to.
package storage

import (
	"context"
	"fmt"

	"github.com/FranksOps/leadscout/internal/lead"
)

// Columns is the tabular export layout used by the csv and xlsx backends.
var Columns = []string{
	"Business Name",
	"Phone Number",
	"Website",
	"Address",
	"Email",
	"Source",
}

// Row flattens a lead into Columns order.
func Row(l lead.Lead) []string {
	return []string{l.BusinessName, l.PhoneNumber, l.Website, l.Address, l.Email, l.Source}
}

// FromRow rebuilds a lead from a Columns-ordered record. It reports false for
// records of the wrong width.
func FromRow(record []string) (lead.Lead, bool) {
	if len(record) != len(Columns) {
		return lead.Lead{}, false
	}
	return lead.Lead{
		BusinessName: record[0],
		PhoneNumber:  record[1],
		Website:      record[2],
		Address:      record[3],
		Email:        record[4],
		Source:       record[5],
	}, true
}

// Filter narrows a Query. Zero values match everything.
type Filter struct {
	Source   string
	HasEmail *bool
	Limit    int
	Offset   int
}

// Match reports whether l passes the Source and HasEmail conditions.
func (f Filter) Match(l lead.Lead) bool {
	if f.Source != "" && l.Source != f.Source {
		return false
	}
	if f.HasEmail != nil && (l.Email != "") != *f.HasEmail {
		return false
	}
	return true
}

// Page applies Offset then Limit to an already filtered slice.
func (f Filter) Page(leads []lead.Lead) []lead.Lead {
	if f.Offset > 0 {
		if f.Offset >= len(leads) {
			return []lead.Lead{}
		}
		leads = leads[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(leads) {
		leads = leads[:f.Limit]
	}
	return leads
}

// Backend stores leads and reads them back in the order they were saved.
type Backend interface {
	Save(ctx context.Context, l lead.Lead) error
	Query(ctx context.Context, filter Filter) ([]lead.Lead, error)
	Close() error
}

// SaveAll writes leads to b in order, stopping at the first failure.
func SaveAll(ctx context.Context, b Backend, leads []lead.Lead) error {
	for i, l := range leads {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("save lead %d: %w", i, err)
		}
		if err := b.Save(ctx, l); err != nil {
			return fmt.Errorf("save lead %d: %w", i, err)
		}
	}
	return nil
}
