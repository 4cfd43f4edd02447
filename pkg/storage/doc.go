// Package storage writes downloaded files to disk.
//
// Writes go to a temporary sibling of the destination and are renamed into
// place once complete, so a failed or interrupted transfer never leaves a
// partial file at the final path. ConflictPolicy decides what happens when
// the destination already exists.
//
// Usage:
//
//	manager, err := storage.NewManager("downloads")
//	dest := manager.Path("fakeartist", "12345")
//	n, err := storage.WriteAtomic(dest+".jpg", body)
package storage
