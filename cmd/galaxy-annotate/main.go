package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	galaxyannotate "github.com/gonkane/galaxy-annotate"
	"github.com/gonkane/galaxy-annotate/pkg/host"
)

func main() {
	var in, out, title, logoPath, overlayType, catalogs, configDir string
	var alpha float64
	var verbose, saveConfig bool

	flag.StringVar(&in, "input", "", "plate-solved input image (FITS, or any raster format)")
	flag.StringVar(&out, "output", "", "output name stem (default: annotated_<input>)")
	flag.StringVar(&title, "title", "", "title drawn above the image (default: input base name)")
	flag.StringVar(&logoPath, "logo_path", "", "logo image for the thumbnail grid")
	flag.Float64Var(&alpha, "overlay_alpha", 0, "annotation transparency in (0,1] (default: saved setting)")
	flag.StringVar(&overlayType, "overlay_type", "", "annotation shape: circles|boxes (default: saved setting)")
	flag.StringVar(&catalogs, "catalogs", "", "comma list of catalog codes to enable, e.g. M,NGC,LEDA")
	flag.StringVar(&configDir, "config", "", "config directory with settings and local catalog CSVs")
	flag.BoolVar(&verbose, "v", false, "log the effective settings before the run")
	flag.BoolVar(&saveConfig, "save_config", false, "persist this run's options as the new defaults")
	flag.Parse()

	if in == "" {
		log.Fatalf("usage: %s -input solved.fits [-output name] [-title text] [-catalogs M,NGC,LEDA] [-overlay_type circles|boxes]", filepath.Base(os.Args[0]))
	}

	// .env may carry SIMBAD_TAP_URL for a mirror endpoint
	_ = godotenv.Load()

	h, err := host.OpenFile(in)
	if err != nil {
		log.Fatal(err)
	}
	if h.Projector() == nil {
		log.Fatalf("%s has no WCS solution; plate-solve the image first", in)
	}
	if configDir != "" {
		h.SetConfigDir(configDir)
	}

	ann := galaxyannotate.New(h)
	if saveConfig {
		s := ann.Settings()
		if logoPath != "" {
			s.LogoPath = logoPath
		}
		if alpha > 0 {
			s.Alpha = alpha
		}
		if overlayType != "" {
			s.OverlayType = overlayType
		}
		if catalogs != "" {
			s.Catalogs = catalogs
		}
		if err := s.Validate(); err != nil {
			log.Fatal(err)
		}
		if err := ann.SaveSettings(); err != nil {
			log.Fatal(err)
		}
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "settings:\n%s", ann.Settings().AsYAML())
	}

	n, err := ann.Annotate(context.Background(), galaxyannotate.Params{
		OutputStem:   out,
		Title:        title,
		LogoPath:     logoPath,
		OverlayAlpha: alpha,
		OverlayStyle: overlayType,
		Catalogs:     catalogs,
		CatalogDir:   configDir,
		TAPBaseURL:   os.Getenv("SIMBAD_TAP_URL"),
	})
	if err != nil {
		log.Fatal(err)
	}
	if n == 0 {
		log.Printf("no objects found; nothing written")
		return
	}
	log.Printf("annotated %d objects", n)
}
