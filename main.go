// Command meshcurv computes discrete curvature of a triangle mesh.
//
// Usage:
//
//	meshcurv mesh [mean | gauss | k1 | k2 | k | all] [show]
//
// It estimates principal curvatures by fitting a quadric to the
// neighborhood of each vertex, and derives mean and Gaussian curvature
// from them. If show is set (the default), it renders the mesh colored
// by the selected curvature with both principal directions drawn
// through each vertex. If the mesh has texture coordinates, it writes
// each selected curvature field to mesh-H.tsv, mesh-G.tsv, mesh-K1.tsv
// or mesh-K2.tsv as lines of "u\tv\tcurvature".
package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const usageText = `Usage: meshcurv mesh [mean | gauss | k1 | k2 | k | all] [show]
   mean:   mean curvature
   gauss:  gaussian curvature
   k1:     first main curvature component
   k2:     second main curvature component
   k:      both main curvature components
   all:    all variants

   show: whether to display the mesh curvature (default, 1) or not (0)

`

func main() {
	log.SetFlags(0)
	log.SetPrefix("meshcurv: ")
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command with args and returns the process exit
// status.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprint(stdout, usageText)
		}
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var flags Flags
	var configPath string

	cmd := &cobra.Command{
		Use:           "meshcurv mesh [mean | gauss | k1 | k2 | k | all] [show]",
		Short:         "Compute and display discrete curvature of a triangle mesh",
		Args:          checkArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg Config
			if configPath != "" {
				var err error
				if cfg, err = LoadConfig(configPath); err != nil {
					return err
				}
			}
			cfg.Resolve(flags, args[0])
			return run(args, cfg)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %s", ErrUsage, err)
	})

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "JSON config `file`")
	f.IntVar(&flags.Rings, "rings", 0, "initial neighborhood size for quadric fitting, in edge rings (default 2)")
	f.IntVar(&flags.MinSamples, "min-samples", 0, "minimum neighbors per quadric fit (default 6)")
	f.IntVar(&flags.MaxRings, "max-rings", 0, "maximum neighborhood size, in edge rings (default 8)")
	f.StringVar(&flags.Mass, "mass", "", "mass matrix: voronoi or barycentric (default voronoi)")
	f.StringVar(&flags.View, "view", "", "rendered view `image` (.png, .webp or .tga; default mesh-view.png)")
	f.IntVar(&flags.ViewSize, "size", 0, "rendered view size in pixels (default 800)")
	f.IntVar(&flags.Supersample, "supersample", 0, "rendered view supersampling factor (default 2)")
	f.StringVar(&flags.POV, "pov", "", "also write a POV-Ray scene of the view to `file`")
	f.StringVar(&flags.Plot, "plot", "", "also plot Laplacian against principal mean curvature to `image`")
	f.BoolVar(&flags.Cache, "cache", false, "reuse curvature computed by earlier runs")
	f.StringVar(&flags.CacheDir, "cache-dir", "", "cache `directory` (default .cache)")
	return cmd
}

// checkArgs validates the positional arguments before anything is
// loaded.
func checkArgs(_ *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: Required mesh filename missing!", ErrUsage)
	}
	if len(args) > 3 {
		return fmt.Errorf("%w: too many arguments", ErrUsage)
	}
	if len(args) > 1 {
		if _, err := ParseKind(args[1]); err != nil {
			return err
		}
	}
	return nil
}

// parseShow interprets the display argument. It is true if it starts
// with 1, y or t.
func parseShow(s string) bool {
	return s != "" && strings.ContainsRune("1yYtT", rune(s[0]))
}

func run(args []string, cfg Config) error {
	path := args[0]
	kind := KindNone
	if len(args) > 1 {
		kind, _ = ParseKind(args[1])
	}
	show := true
	if len(args) > 2 {
		show = parseShow(args[2])
	}
	mass, err := cfg.MassType()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUsage, err)
	}

	m, err := LoadMesh(path)
	if err != nil {
		return err
	}
	m.LogDims()
	if !show && !m.HasUV() {
		return fmt.Errorf("%w: No UV available in %s!", ErrNoUV, path)
	}

	c, err := curvature(m, mass, cfg)
	if err != nil {
		return err
	}

	if show {
		if err := display(path, m, c, kind, cfg); err != nil {
			return err
		}
	}
	if m.HasUV() {
		ExportFields(path, m, c.Fields(kind))
	}
	return nil
}

func curvature(m *Mesh, mass MassType, cfg Config) (*Curvature, error) {
	if !cfg.Cache {
		return ComputeCurvature(m, mass, cfg.FitOptions())
	}
	ck := CurvatureCacheKey(cfg.CacheDir, m, mass, cfg.FitOptions())
	c := new(Curvature)
	if ck.Load(c) {
		return c, nil
	}
	c, err := ComputeCurvature(m, mass, cfg.FitOptions())
	if err != nil {
		return nil, err
	}
	ck.Save(c)
	return c, nil
}

// display writes the view of m colored by kind, and the optional POV-Ray
// scene and plots.
func display(path string, m *Mesh, c *Curvature, kind Kind, cfg Config) error {
	b := NewViewBundle(m, c, kind)
	if err := WriteImage(cfg.View, RenderView(b, cfg.ViewSize, cfg.Supersample)); err != nil {
		return err
	}
	log.Printf("Rendered %s of %s to %s", b.Field.Name, path, cfg.View)

	if cfg.POV != "" {
		if err := b.WritePOVFile(cfg.POV); err != nil {
			return err
		}
		log.Printf("Wrote POV-Ray scene to %s", cfg.POV)
	}
	if cfg.Plot != "" {
		paths, err := c.SavePlots(cfg.Plot, b.Field)
		if err != nil {
			return fmt.Errorf("plotting: %w", err)
		}
		log.Printf("Plotted to %s", strings.Join(paths, ", "))
	}
	return nil
}
