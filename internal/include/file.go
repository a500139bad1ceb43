package include

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/harrison/incflat/internal/filelock"
)

// FileOptions controls how ExpandFile publishes its result.
type FileOptions struct {
	// KeepPartial writes whatever was produced before a failure to the
	// output path. By default a failed run leaves the output path untouched.
	KeepPartial bool
}

// Result summarizes a run of ExpandFile.
type Result struct {
	Bytes     int  // Size of the flattened output
	Published bool // Whether the output path was written
}

// ExpandFile flattens in and writes the result to out. The input is opened
// before anything is written, so an unreadable root never creates out. The
// output is replaced atomically while holding out + ".lock".
func (e *Expander) ExpandFile(ctx context.Context, in, out string, opts FileOptions) (Result, error) {
	root, err := e.open(ctx, in)
	if err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	runErr := e.run(ctx, root, &buf)
	res := Result{Bytes: buf.Len()}

	if runErr != nil && !opts.KeepPartial {
		return res, runErr
	}
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		return res, runErr
	}

	if err := filelock.Publish(ctx, out, buf.Bytes()); err != nil {
		if runErr != nil {
			return res, runErr
		}
		return res, fmt.Errorf("publishing %s: %w", out, err)
	}
	res.Published = true
	return res, runErr
}
