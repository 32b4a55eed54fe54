package watcher

import "context"

// Watcher monitors the meeting inbox directory.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler ingests one new file.
type EventHandler func(ctx context.Context, filePath string) error
