package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"certguard/internal/duplicate/models"
	certstore "certguard/internal/duplicate/store/certificate"
)

// loadCorpus reads a JSON array of certificates into an in-memory store.
func loadCorpus(ctx context.Context, path string) (*certstore.InMemoryStore, int, error) {
	store := certstore.NewInMemoryStore()
	if path == "" {
		return store, 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read corpus: %w", err)
	}
	var certs []models.Certificate
	if err := json.Unmarshal(data, &certs); err != nil {
		return nil, 0, fmt.Errorf("parse corpus %s: %w", path, err)
	}
	for i, c := range certs {
		if c.ID == "" {
			return nil, 0, fmt.Errorf("corpus entry %d has no id", i)
		}
		if c.Status == "" {
			c.Status = models.CertificateStatusActive
		}
		if err := store.Save(ctx, c); err != nil {
			return nil, 0, err
		}
	}
	return store, len(certs), nil
}
