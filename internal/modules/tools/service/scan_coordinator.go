package service

import (
	"context"
	"fmt"

	"devdeck/internal/modules/tools/domain"
	toolsout "devdeck/internal/modules/tools/port/out"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// ScanCoordinator queries every driver concurrently. A failing driver only
// loses its own contribution.
type ScanCoordinator struct {
	logger hclog.Logger
}

func NewScanCoordinator(logger hclog.Logger) *ScanCoordinator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ScanCoordinator{logger: logger.Named("scan")}
}

// ScanResult is one merged scan. Failures holds one error per failed source,
// in driver order.
type ScanResult struct {
	Records  []domain.ToolRecord
	Failures []error
}

// AllFailed reports whether no source out of scanned answered.
func (r ScanResult) AllFailed(scanned int) bool {
	return scanned > 0 && len(r.Failures) == scanned
}

// ScanAll returns the merged records in driver order. Within one result, a
// repeated (source, full name) keeps its first occurrence.
func (c *ScanCoordinator) ScanAll(ctx context.Context, drivers []toolsout.Driver) ScanResult {
	parts := make([][]domain.ToolRecord, len(drivers))
	errs := make([]error, len(drivers))
	var g errgroup.Group
	for i, driver := range drivers {
		g.Go(func() error {
			records, err := driver.Scan(ctx)
			if err != nil {
				c.logger.Warn("source scan failed", "source", driver.Source(), "error", err)
				errs[i] = fmt.Errorf("scan %s: %w", driver.Source(), err)
				return nil
			}
			parts[i] = records
			return nil
		})
	}
	_ = g.Wait()

	var result ScanResult
	for _, err := range errs {
		if err != nil {
			result.Failures = append(result.Failures, err)
		}
	}

	seen := map[domain.Key]struct{}{}
	merged := make([]domain.ToolRecord, 0)
	for _, part := range parts {
		for _, record := range part {
			key := record.Key()
			if _, dup := seen[key]; dup {
				c.logger.Debug("dropping duplicate record", "key", key.String())
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, record)
		}
	}
	result.Records = merged
	return result
}

// SearchOutcome is one merged registry search, shaped like ScanResult.
type SearchOutcome struct {
	Results  []domain.SearchResult
	Failures []error
}

func (o SearchOutcome) AllFailed(searched int) bool {
	return searched > 0 && len(o.Failures) == searched
}

// SearchAll asks every finder concurrently and merges the answers in the
// order the finders were given.
func (c *ScanCoordinator) SearchAll(ctx context.Context, finders []sourcedFinder, query string) SearchOutcome {
	parts := make([][]domain.SearchResult, len(finders))
	errs := make([]error, len(finders))
	var g errgroup.Group
	for i, f := range finders {
		g.Go(func() error {
			results, err := f.finder.Search(ctx, query)
			if err != nil {
				c.logger.Warn("source search failed", "source", f.source, "error", err)
				errs[i] = fmt.Errorf("search %s: %w", f.source, err)
				return nil
			}
			parts[i] = results
			return nil
		})
	}
	_ = g.Wait()

	outcome := SearchOutcome{Results: make([]domain.SearchResult, 0)}
	for i, part := range parts {
		if errs[i] != nil {
			outcome.Failures = append(outcome.Failures, errs[i])
			continue
		}
		for _, r := range part {
			if r.Source == "" {
				r.Source = finders[i].source
			}
			outcome.Results = append(outcome.Results, r)
		}
	}
	return outcome
}

type sourcedFinder struct {
	source domain.Source
	finder toolsout.PackageFinder
}
