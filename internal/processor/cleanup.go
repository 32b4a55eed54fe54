package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// moveToArchived moves an ingested inbox file to the archived folder. An
// existing file with the same name is kept; the new one gets a timestamp
// suffix.
func (p *implProcessor) moveToArchived(ctx context.Context, path string) error {
	if err := os.MkdirAll(p.cfg.Paths.Archived, 0755); err != nil {
		return fmt.Errorf("create archived dir: %w", err)
	}

	filename := filepath.Base(path)
	destPath := filepath.Join(p.cfg.Paths.Archived, filename)
	if _, err := os.Stat(destPath); err == nil {
		ext := filepath.Ext(filename)
		destPath = filepath.Join(p.cfg.Paths.Archived,
			fmt.Sprintf("%s_%s%s", strings.TrimSuffix(filename, ext), time.Now().Format("20060102150405"), ext))
	}

	p.logger.Info(ctx, "Moving to archived folder: %s -> %s", path, destPath)

	if err := os.Rename(path, destPath); err != nil {
		if err := p.copyFile(path, destPath); err != nil {
			return fmt.Errorf("move to archived: %w", err)
		}
		p.cleanupFile(ctx, path)
	}
	return nil
}

// copyFile copies a file from src to dst
func (p *implProcessor) copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}
	return nil
}

// cleanupFile removes a file, logs warning if fails
func (p *implProcessor) cleanupFile(ctx context.Context, filePath string) {
	if err := os.Remove(filePath); err != nil {
		p.logger.Warn(ctx, "Failed to remove %s: %v", filePath, err)
	} else {
		p.logger.Debug(ctx, "Removed: %s", filePath)
	}
}
