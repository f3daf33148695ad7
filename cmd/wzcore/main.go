// wzcore is a command-line harness over the archive/prop/pixel/sound/xmlenc
// packages: parse, dump, xml, repack, export-pixels, export-sound.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/goinggo/workpool"

	"github.com/libevm/schlop-app/archive"
	"github.com/libevm/schlop-app/pixel"
	"github.com/libevm/schlop-app/tree"
	"github.com/libevm/schlop-app/wzfmt"
	"github.com/libevm/schlop-app/xmlenc"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "parse":
		err = runParse(args)
	case "dump":
		err = runDump(args)
	case "xml":
		err = runXML(args)
	case "repack":
		err = runRepack(args)
	case "export-pixels":
		err = runExportPixels(args)
	case "export-sound":
		err = runExportSound(args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Println("wzcore - WZ archive codec CLI")
	fmt.Println("Usage: wzcore <parse|dump|xml|repack|export-pixels|export-sound> [options] <file>")
}

func loadArchive(path string, variant string, patch int) (*tree.Node, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	buf := []byte(m)

	var warnings []string
	root, err := archive.ParseArchive(buf, archive.ParseOptions{
		Variant: variant,
		Patch:   patch,
		Warn: func(format string, a ...any) {
			warnings = append(warnings, fmt.Sprintf(format, a...))
		},
	})
	if err != nil {
		return nil, nil, err
	}
	for _, w := range warnings {
		log.Println("warning:", w)
	}
	return root, buf, nil
}

func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	variant := fs.String("variant", "", "regional variant hint (GMS/EMS/BMS)")
	patch := fs.Int("patch", 0, "patch version hint")
	fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		return fmt.Errorf("parse: missing file argument")
	}

	root, _, err := loadArchive(path, *variant, *patch)
	if err != nil {
		return err
	}
	fmt.Printf("parsed %q: %d directories, %d images\n", path, root.CountTag(tree.TagDir), root.CountTag(tree.TagImage))
	return nil
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	variant := fs.String("variant", "", "regional variant hint")
	patch := fs.Int("patch", 0, "patch version hint")
	fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		return fmt.Errorf("dump: missing file argument")
	}

	root, _, err := loadArchive(path, *variant, *patch)
	if err != nil {
		return err
	}

	root.Walk(func(n *tree.Node) bool {
		fmt.Printf("%s [%s]\n", n.Path(), n.Tag)
		return true
	})
	return nil
}

func runXML(args []string) error {
	fs := flag.NewFlagSet("xml", flag.ExitOnError)
	variant := fs.String("variant", "", "regional variant hint")
	patch := fs.Int("patch", 0, "patch version hint")
	out := fs.String("out", "", "output file (default stdout)")
	fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		return fmt.Errorf("xml: missing file argument")
	}

	root, _, err := loadArchive(path, *variant, *patch)
	if err != nil {
		return err
	}

	text := xmlenc.Serialize(root)
	if *out == "" {
		fmt.Print(text)
		return nil
	}
	return os.WriteFile(*out, []byte(text), 0644)
}

func runRepack(args []string) error {
	fs := flag.NewFlagSet("repack", flag.ExitOnError)
	variant := fs.String("variant", "GMS", "regional variant for output")
	patch := fs.Int("patch", 83, "patch version for output")
	out := fs.String("out", "", "output archive path")
	concurrent := fs.Bool("concurrent", false, "fan Pass 1 image serialization across a worker pool")
	fs.Parse(args)

	path := fs.Arg(0)
	if path == "" || *out == "" {
		return fmt.Errorf("repack: usage: repack -out <output.wz> <input.wz>")
	}

	root, original, err := loadArchive(path, "", 0)
	if err != nil {
		return err
	}

	iv, ok := wzfmt.Variants[*variant]
	if !ok {
		return fmt.Errorf("repack: unknown variant %q", *variant)
	}

	w := archive.NewWriter()
	var data []byte
	if *concurrent {
		pool := workpool.New(runtime.NumCPU()*2, 7000)
		data, err = w.RepackConcurrent(root, iv, *patch, original, pool)
	} else {
		data, err = w.Repack(root, iv, *patch, original)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(*out, data, 0644)
}

func runExportPixels(args []string) error {
	fs := flag.NewFlagSet("export-pixels", flag.ExitOnError)
	variant := fs.String("variant", "", "regional variant hint")
	patch := fs.Int("patch", 0, "patch version hint")
	outDir := fs.String("out", ".", "output directory for PNGs")
	fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		return fmt.Errorf("export-pixels: missing file argument")
	}

	root, _, err := loadArchive(path, *variant, *patch)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}

	var canvases []*tree.Node
	root.Walk(func(n *tree.Node) bool {
		if n.Tag == tree.TagImage {
			if err := archive.ParseImage(n, archive.ParseOptions{Warn: func(format string, a ...any) { log.Printf(format, a...) }}); err != nil {
				log.Printf("parse image %q: %v", n.Path(), err)
				return true
			}
		}
		if n.Tag == tree.TagCanvas {
			canvases = append(canvases, n)
		}
		return true
	})

	pool := workpool.New(runtime.NumCPU()*2, 7000)
	var wg sync.WaitGroup
	for _, c := range canvases {
		wg.Add(1)
		node := c
		work := workFunc(func(int) {
			defer wg.Done()
			rgba, err := archive.DecodeCanvas(node)
			if err != nil && rgba == nil {
				log.Printf("decode canvas %q: %v", node.Path(), err)
				return
			}
			png, err := pixel.EncodePNG(rgba, int(node.Width), int(node.Height))
			if err != nil {
				log.Printf("encode canvas %q: %v", node.Path(), err)
				return
			}
			name := filepath.Join(*outDir, sanitizeFilename(node.Path())+".png")
			if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
				log.Printf("mkdir for %q: %v", name, err)
				return
			}
			if err := os.WriteFile(name, png, 0644); err != nil {
				log.Printf("write %q: %v", name, err)
			}
		})
		if err := pool.PostWork("export-pixels", work); err != nil {
			log.Printf("schedule canvas %q: %v", node.Path(), err)
			wg.Done()
		}
	}
	wg.Wait()
	return nil
}

func runExportSound(args []string) error {
	fs := flag.NewFlagSet("export-sound", flag.ExitOnError)
	variant := fs.String("variant", "", "regional variant hint")
	patch := fs.Int("patch", 0, "patch version hint")
	outDir := fs.String("out", ".", "output directory for audio files")
	fs.Parse(args)

	path := fs.Arg(0)
	if path == "" {
		return fmt.Errorf("export-sound: missing file argument")
	}

	root, _, err := loadArchive(path, *variant, *patch)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}

	root.Walk(func(n *tree.Node) bool {
		if n.Tag == tree.TagImage {
			if err := archive.ParseImage(n, archive.ParseOptions{Warn: func(format string, a ...any) { log.Printf(format, a...) }}); err != nil {
				log.Printf("parse image %q: %v", n.Path(), err)
				return true
			}
		}
		if n.Tag != tree.TagSound {
			return true
		}
		body, mime, err := archive.ExtractSound(n)
		if err != nil {
			log.Printf("extract sound %q: %v", n.Path(), err)
			return true
		}
		name := filepath.Join(*outDir, sanitizeFilename(n.Path())+extensionFor(mime))
		if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
			log.Printf("mkdir for %q: %v", name, err)
			return true
		}
		if err := os.WriteFile(name, body, 0644); err != nil {
			log.Printf("write %q: %v", name, err)
		}
		return true
	})
	return nil
}

func extensionFor(mime string) string {
	switch mime {
	case "audio/wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".mp3"
	}
}

func sanitizeFilename(path string) string {
	out := make([]rune, 0, len(path))
	for _, r := range path {
		if r == '/' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// workFunc adapts a plain func(int) to workpool.PoolWorker.
type workFunc func(workRoutine int)

func (f workFunc) DoWork(workRoutine int) { f(workRoutine) }
