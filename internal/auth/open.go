package auth

import "fmt"

// Open builds the store selected by kind ("memory", "json" or "sqlite")
func Open(kind, path string) (Store, error) {
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "json":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown credential store %q", kind)
	}
}
