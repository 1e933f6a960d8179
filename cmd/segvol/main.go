// Command-line tool for segmentations held in a segvol store.
// Provides inspection, mesh export, compaction and import of MetaImage volumes.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/janelia-flyem/segvol/datastore"
	"github.com/janelia-flyem/segvol/datatype/mesh"
	"github.com/janelia-flyem/segvol/datatype/sparsevolume"
	"github.com/janelia-flyem/segvol/segvol"
	"github.com/janelia-flyem/segvol/server"
	"github.com/janelia-flyem/segvol/storage"
	"github.com/janelia-flyem/segvol/storage/filestore"

	humanize "github.com/dustin/go-humanize"
	"github.com/twinj/uuid"

	// Declare the storage engines available.
	_ "github.com/janelia-flyem/segvol/storage/badger"
	_ "github.com/janelia-flyem/segvol/storage/bucket"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Run in verbose mode if true.
	runVerbose = flag.Bool("verbose", false, "")

	// TOML configuration file.
	configFile = flag.String("config", "", "")

	// Name prefix of stored segmentations.
	prefix = flag.String("prefix", "", "")

	// Also keep a computed mesh in the store.
	storeMesh = flag.Bool("store", false, "")
)

const helpMessage = `
segvol is a command-line tool for sparse segmentation volumes

Usage: segvol [options] <command>

      -config     =string   TOML configuration file giving the store and volume settings.
      -prefix     =string   Name prefix of stored segmentations.
      -store      (flag)    For mesh, also save the mesh with the segmentation.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	help
	info    <id>
	mesh    <id> <output .glb> [foreground value]
	compact <id>
	import  <header .mhd> [id]
`

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = func() { fmt.Print(helpMessage) }
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *runVerbose {
		segvol.Verbose = true
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if err := DoCommand(context.Background(), flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// DoCommand serves as a switchboard for commands.
func DoCommand(ctx context.Context, args []string) error {
	if args[0] == "about" {
		fmt.Println(datastore.Versions())
		return nil
	}

	if *configFile == "" {
		return fmt.Errorf("%s command requires a -config file", args[0])
	}
	if err := server.LoadConfig(*configFile); err != nil {
		return err
	}
	server.LogConfig().SetLogger()
	defer server.Shutdown()

	store, _, err := server.OpenStore()
	if err != nil {
		return err
	}
	defer store.Close()

	switch args[0] {
	case "info":
		return DoInfo(ctx, store, args)
	case "mesh":
		return DoMesh(ctx, store, args)
	case "compact":
		return DoCompact(ctx, store, args)
	case "import":
		return DoImport(ctx, store, args)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func argument(args []string, i int, what string) (string, error) {
	if len(args) <= i || args[i] == "" {
		return "", fmt.Errorf("%s command must be followed by %s", args[0], what)
	}
	return args[i], nil
}

// load returns the stored segmentation with the given id.
func load(ctx context.Context, store storage.Store, id string) (*datastore.Output, *sparsevolume.Volume[uint8], error) {
	v := sparsevolume.New[uint8](segvol.VolumeBounds{}, server.VolumeOptions()...)
	out := datastore.NewOutput(id)
	out.SetWorkers(server.Workers())
	out.Add(v)
	if err := out.Load(ctx, store, *prefix); err != nil {
		return nil, nil, err
	}
	return out, v, nil
}

// DoInfo prints the bounds and block statistics of a segmentation.
func DoInfo(ctx context.Context, store storage.Store, args []string) error {
	id, err := argument(args, 1, "a segmentation id")
	if err != nil {
		return err
	}
	_, v, err := load(ctx, store, id)
	if err != nil {
		return err
	}
	fmt.Printf("Segmentation %q in %s\n", id, store)
	fmt.Printf("  bounds:         %s\n", v.Bounds())
	fmt.Printf("  content bounds: %s\n", v.ContentBounds())
	fmt.Printf("  block size:     %d\n", v.BlockSize())
	fmt.Printf("  statistics:     %s\n", v.Stats())
	fmt.Printf("  edited regions: %d\n", len(v.EditedRegions()))
	return nil
}

// DoMesh writes the marching cubes surface of a segmentation as a GLB file.
func DoMesh(ctx context.Context, store storage.Store, args []string) error {
	id, err := argument(args, 1, "a segmentation id")
	if err != nil {
		return err
	}
	filename, err := argument(args, 2, "an output .glb file")
	if err != nil {
		return err
	}
	opts := []mesh.Option{}
	if len(args) > 3 {
		value, err := strconv.ParseUint(args[3], 10, 8)
		if err != nil {
			return fmt.Errorf("bad foreground value %q: %v", args[3], err)
		}
		opts = append(opts, mesh.WithForeground(value))
	}
	out, v, err := load(ctx, store, id)
	if err != nil {
		return err
	}
	m := mesh.NewMarchingCubesMesh[uint8](v, opts...)
	out.Add(m)
	if err := out.Update(); err != nil {
		return err
	}
	poly := m.Mesh()
	data, err := mesh.EncodeGLB(poly)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s) to %s\n", poly, humanize.Bytes(uint64(len(data))), filename)

	if *storeMesh {
		out.Add(mesh.NewRawMesh(poly))
		if err := out.SaveEdits(ctx, store, *prefix); err != nil {
			return err
		}
		fmt.Printf("Stored mesh of %q in %s\n", id, store)
	}
	return nil
}

// DoCompact shrinks a segmentation to its contents and saves it in full, folding in any
// saved edits.
func DoCompact(ctx context.Context, store storage.Store, args []string) error {
	id, err := argument(args, 1, "a segmentation id")
	if err != nil {
		return err
	}
	out, v, err := load(ctx, store, id)
	if err != nil {
		return err
	}
	before := v.Stats()
	if err := v.FitToContents(); err != nil {
		return fmt.Errorf("segmentation %q: %v", id, err)
	}
	if err := out.SaveFull(ctx, store, *prefix); err != nil {
		return err
	}
	fmt.Printf("Compacted %q from %s to %s\n", id, before, v.Stats())
	return nil
}

// DoImport stores a MetaImage volume as a new segmentation.
func DoImport(ctx context.Context, store storage.Store, args []string) error {
	header, err := argument(args, 1, "a MetaImage header file")
	if err != nil {
		return err
	}
	id := uuid.NewV4().String()
	if len(args) > 2 {
		id = args[2]
	}
	src, _, err := filestore.Open(filepath.Dir(header))
	if err != nil {
		return err
	}
	img, err := sparsevolume.ReadImage[uint8](ctx, src, filepath.Base(header))
	if err != nil {
		return err
	}
	v := sparsevolume.NewFromImage(img, server.VolumeOptions()...)
	out := datastore.NewOutput(id)
	out.SetWorkers(server.Workers())
	out.Add(v)
	if err := out.SaveFull(ctx, store, *prefix); err != nil {
		return err
	}
	fmt.Printf("Imported %s as %q: %s\n", header, id, v.Stats())
	return nil
}
