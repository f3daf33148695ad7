package archive

import (
	"sync"

	"github.com/goinggo/workpool"

	"github.com/libevm/schlop-app/prop"
	"github.com/libevm/schlop-app/tree"
	"github.com/libevm/schlop-app/wzerr"

	"github.com/libevm/schlop-app/binutil"
)

// ParseOptions controls archive/image parsing: optional auto-detection
// hints and the warning sink for recoverable anomalies (§7).
type ParseOptions struct {
	Variant string
	Patch   int
	Warn    wzerr.Warner
}

// ParseArchive reads the PKG1 header, detects layout and (when Variant/
// Patch are unset) the regional variant and patch version by trial, and
// walks the directory tree. Image property lists are left unparsed; call
// ParseImage or PrefetchAll to populate them.
func ParseArchive(buf []byte, opts ParseOptions) (*tree.Node, error) {
	r := binutil.NewReader(buf)

	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	isSixtyFour, err := detectLayout(r, hdr.DataStart)
	if err != nil {
		return nil, err
	}

	root, _, err := detect(r, hdr, isSixtyFour, opts.Variant, opts.Patch)
	if err != nil {
		return nil, err
	}
	return root, nil
}

// ParseImage populates the property tree under img from its lazy
// provenance. Idempotent: a second call on an already-parsed image is a
// no-op.
func ParseImage(img *tree.Node, opts ParseOptions) error {
	prov := img.ImageProv
	if prov == nil || prov.Parsed {
		return nil
	}

	r := prov.Source.Clone()
	r.Seek(prov.Offset)
	r = r.WithCrypto(prov.Key, prov.DataStart, prov.VersionHash)

	tag, err := r.ReadStringBlock()
	if err != nil {
		return err
	}
	if tag != "Property" {
		opts.Warn.Warnf("image %q: unexpected header tag %q", img.Name, tag)
	}
	r.Skip(2)

	if err := prop.Parse(r, prov.DataStart, img, prop.Options{Warn: opts.Warn}); err != nil {
		return err
	}

	prov.Parsed = true
	img.Modified = false
	return nil
}

// prefetchWork adapts one image's ParseImage call to workpool.PoolWorker.
type prefetchWork struct {
	node  *tree.Node
	opts  ParseOptions
	wg    *sync.WaitGroup
	errCh chan<- error
}

func (w *prefetchWork) DoWork(workRoutine int) {
	defer w.wg.Done()
	if err := ParseImage(w.node, w.opts); err != nil {
		select {
		case w.errCh <- err:
		default:
		}
	}
}

// PrefetchAll concurrently parses every lazy image under root. Passing a
// nil pool runs the same work sequentially on the caller's goroutine.
func PrefetchAll(root *tree.Node, pool *workpool.WorkPool, opts ParseOptions) error {
	if pool == nil {
		var firstErr error
		root.Walk(func(n *tree.Node) bool {
			if n.Tag == tree.TagImage {
				if err := ParseImage(n, opts); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return true
		})
		return firstErr
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)
	var postErr error

	root.Walk(func(n *tree.Node) bool {
		if n.Tag != tree.TagImage {
			return true
		}
		wg.Add(1)
		work := &prefetchWork{node: n, opts: opts, wg: &wg, errCh: errCh}
		if err := pool.PostWork("archive-prefetch", work); err != nil {
			wg.Done()
			if postErr == nil {
				postErr = err
			}
		}
		return true
	})
	wg.Wait()

	if postErr != nil {
		return postErr
	}
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
