package ports

import "context"

// Watcher reports changes to settings documents.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Watch calls onChange after every burst of changes to any of paths. It blocks until ctx is
	// done and returns nil then. onChange is never called concurrently with itself.
	Watch(ctx context.Context, paths []string, onChange func()) error
}
