// Package storage writes paste files to disk.
//
// Files live under <output>/<author slug>/ and are created with O_EXCL, so an
// existing file is never overwritten. When a name is taken the new file gets
// a "_<epoch milliseconds>" suffix instead:
//
//	manager, err := storage.NewManager("./output")
//	if err != nil {
//	    return err
//	}
//
//	path, err := manager.Save("someone", "My Paste", header, models.BodySeparator, body)
//
// A write that fails part way removes the partial file before returning.
package storage
