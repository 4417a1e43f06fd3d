package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SeedDefaults ingests every file under dir into the shared default
// index. Seeding is best-effort per file: unsupported or broken files
// are logged and skipped so one bad asset cannot block startup.
// Returns the number of files newly added.
func (s *Service) SeedDefaults(ctx context.Context, dir, defaultUserID string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read default assets dir: %w", err)
	}

	added := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		content, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Skipping unreadable default asset",
				zap.String("file", path), zap.Error(err))
			continue
		}

		result, err := s.AddDocument(ctx, defaultUserID, entry.Name(), content)
		if err != nil {
			s.logger.Warn("Skipping default asset that failed to ingest",
				zap.String("file", path), zap.Error(err))
			continue
		}
		if result.Status == StatusAdded {
			added++
		}
	}

	s.logger.Info("Default index seeded",
		zap.String("dir", dir),
		zap.Int("added", added),
		zap.Int("files", len(entries)))

	return added, nil
}
