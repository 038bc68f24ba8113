package export

import (
	"context"

	"roamexport/internal/apperr"
	"roamexport/internal/fsys"
)

// Copy is a converter that writes the node title as the whole document. It
// needs no Emacs and is useful for checking the export layout.
type Copy struct {
	FS fsys.FS
}

func (c Copy) Convert(_ context.Context, job Job) error {
	if err := c.FS.WriteFile(job.Target, []byte(job.Title)); err != nil {
		return &apperr.FileIOError{Op: "write", Path: job.Target, Err: err}
	}
	return nil
}
