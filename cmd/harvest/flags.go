package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/usecase"
	"github.com/user/news-harvester/pkg/config"
)

type harvestFlags struct {
	interval      time.Duration
	intervalSet   bool
	maxCount      int
	lastKnownFile string
	startDate     string
	incremental   bool
	persist       bool
	fetchMode     string
}

// bounds applies the configured defaults to whatever was not given on the command line.
func (f harvestFlags) bounds(cfg *config.Config) (time.Duration, int) {
	interval := f.interval
	if !f.intervalSet {
		interval = time.Duration(cfg.HarvestIntervalHours) * time.Hour
	}
	maxCount := f.maxCount
	if maxCount == 0 {
		maxCount = cfg.HarvestMaxCount
	}
	return interval, maxCount
}

// options builds harvester options for a run that is only printed.
func (f harvestFlags) options(cfg *config.Config) (usecase.Options, error) {
	if f.incremental {
		return usecase.Options{}, errors.New("--incremental requires --persist")
	}

	interval, maxCount := f.bounds(cfg)
	opts := usecase.Options{MaxCount: maxCount}
	if interval > 0 {
		opts.Window = usecase.WindowOf(interval)
	}

	if f.startDate != "" {
		start, err := time.ParseInLocation(time.DateOnly, f.startDate, time.UTC)
		if err != nil {
			return opts, fmt.Errorf("invalid --start-date: %w", err)
		}
		opts.StartDate = start
	}

	if f.lastKnownFile != "" {
		doc, err := readDocument(f.lastKnownFile)
		if err != nil {
			return opts, err
		}
		opts.LastKnown = doc
	}
	return opts, opts.Validate()
}

// runRequest builds the request for a persisted run. Persisted runs always
// start today and take their last known document from the checkpoint store.
func (f harvestFlags) runRequest(cfg *config.Config) (entity.RunRequest, error) {
	if f.lastKnownFile != "" || f.startDate != "" {
		return entity.RunRequest{}, errors.New("--last-known-file and --start-date cannot be combined with --persist")
	}
	interval, maxCount := f.bounds(cfg)
	if interval%time.Hour != 0 {
		return entity.RunRequest{}, fmt.Errorf("--interval must be whole hours with --persist, got %s", interval)
	}
	req := entity.RunRequest{
		IntervalHours: int(interval / time.Hour),
		MaxCount:      maxCount,
		Incremental:   f.incremental,
	}
	return req, usecase.ValidateRequest(req)
}

func readDocument(path string) (*entity.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read last known document: %w", err)
	}
	var doc entity.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode last known document %s: %w", path, err)
	}
	if doc.WebLink == "" && doc.ContentHash == "" {
		return nil, fmt.Errorf("last known document %s has neither web_link nor content_hash", path)
	}
	return &doc, nil
}
