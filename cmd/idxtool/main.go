package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/bodgit/idxtool"
	"github.com/bodgit/idxtool/catalog"
	"github.com/bodgit/idxtool/idx"
	"github.com/bodgit/idxtool/onnx"
	"github.com/bodgit/idxtool/raster"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(c.App.ErrWriter)
	}
	return logger
}

func loadConfig(c *cli.Context) (idxtool.Config, error) {
	if file := c.String("config"); file != "" {
		return idxtool.LoadConfig(file)
	}
	return idxtool.DefaultConfig(), nil
}

// Flags only override the configuration when explicitly set
func applyExportFlags(c *cli.Context, cfg *idxtool.Config) error {
	if c.NArg() > 0 {
		cfg.Input = c.Args().First()
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("count") {
		cfg.Count = c.Int("count")
	}
	if c.IsSet("rows") {
		cfg.Rows = uint32(c.Uint("rows"))
	}
	if c.IsSet("cols") {
		cfg.Cols = uint32(c.Uint("cols"))
	}
	if c.IsSet("magic") {
		cfg.Magic = uint32(c.Uint("magic"))
	}
	if c.IsSet("format") {
		f, err := raster.ParseFormat(c.String("format"))
		if err != nil {
			return err
		}
		cfg.Format = f
	}
	if c.IsSet("quality") {
		cfg.Quality = c.Int("quality")
	}
	if c.IsSet("colors") {
		cfg.Colors = c.Int("colors")
	}
	if c.IsSet("catalog") {
		cfg.Catalog = c.String("catalog")
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

type sessionSamples struct {
	Session *catalog.Session `json:"session"`
	Samples []catalog.Sample `json:"samples"`
}

func listCatalog(c *cli.Context) error {
	file := c.Args().First()

	// Opening would otherwise create an empty catalog
	if _, err := os.Stat(file); err != nil {
		return err
	}

	db, err := catalog.Open(file)
	if err != nil {
		return err
	}
	defer db.Close()

	w := c.App.Writer

	if c.NArg() < 2 {
		sessions, err := db.Sessions()
		if err != nil {
			return err
		}

		if c.Bool("json") {
			if sessions == nil {
				sessions = []catalog.Session{}
			}
			return writeJSON(w, sessions)
		}

		for _, s := range sessions {
			if _, err := fmt.Fprintf(w, "%s %s %s -> %s (%s, %d items, %dx%d)\n", s.ID, s.Created.Format(time.RFC3339), s.Source, s.Output, s.Format, s.Count, s.Rows, s.Cols); err != nil {
				return err
			}
		}
		return nil
	}

	id := c.Args().Get(1)
	s, err := db.Session(id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("no such session %q", id)
	}

	samples, err := db.Samples(id)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		if samples == nil {
			samples = []catalog.Sample{}
		}
		return writeJSON(w, sessionSamples{Session: s, Samples: samples})
	}

	if _, err := fmt.Fprintf(w, "%s -> %s\n", s.Source, s.Output); err != nil {
		return err
	}
	for _, sample := range samples {
		if _, err := fmt.Fprintf(w, "%d %s %s\n", sample.Index, sample.Filename, sample.SHA1); err != nil {
			return err
		}
	}
	return nil
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "idxtool"
	app.Usage = "IDX dataset export and ONNX graph inspection utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"IDXTOOL_CONFIG"},
			Usage:   "path to YAML configuration",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "export",
			Usage:       "Export dataset records as image files",
			Description: "Writes the first --count records of FILE to --output as 0.jpg, 1.jpg, and so on.",
			ArgsUsage:   "[FILE]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   idxtool.DefaultOutput,
					Usage:   "output directory",
				},
				&cli.IntFlag{
					Name:    "count",
					Aliases: []string{"n"},
					Value:   idxtool.DefaultCount,
					Usage:   "number of records to export",
				},
				&cli.UintFlag{
					Name:  "rows",
					Value: idxtool.DefaultRows,
					Usage: "expected rows per record, 0 to accept any",
				},
				&cli.UintFlag{
					Name:  "cols",
					Value: idxtool.DefaultCols,
					Usage: "expected columns per record, 0 to accept any",
				},
				&cli.UintFlag{
					Name:  "magic",
					Usage: "expected magic number, 0 to accept any",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   raster.JPEG.String(),
					Usage:   "image format; jpeg, png or gif",
				},
				&cli.IntFlag{
					Name:  "quality",
					Value: raster.DefaultQuality,
					Usage: "JPEG quality",
				},
				&cli.IntFlag{
					Name:  "colors",
					Value: raster.DefaultColors,
					Usage: "maximum GIF palette size",
				},
				&cli.StringFlag{
					Name:  "catalog",
					Usage: "record the session in this sqlite database",
				},
			},
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return cli.Exit(err, 1)
				}

				if err := applyExportFlags(c, &cfg); err != nil {
					return cli.Exit(err, 1)
				}

				e, err := idxtool.New(cfg, c.App.Writer, newLogger(c))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer e.Close()

				if _, err := e.Export(); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "header",
			Usage:     "Print the header of a dataset",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print as JSON",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := idx.Open(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer f.Close()

				h, err := idx.ReadHeader(f)
				if err != nil {
					return cli.Exit(err, 1)
				}

				if c.Bool("json") {
					if err := writeJSON(c.App.Writer, h); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				}

				fmt.Fprintln(c.App.Writer, h)

				return nil
			},
		},
		{
			Name:        "inspect",
			Usage:       "Print the nodes of an ONNX model",
			Description: "Lists every node of the model graph whose operator type matches --op.",
			ArgsUsage:   "MODEL",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "op",
					Value: "Clip",
					Usage: "operator type to match, empty for all",
				},
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print as JSON",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := newLogger(c)

				m, err := onnx.Load(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}
				if m.Graph == nil {
					return cli.Exit("model has no graph", 1)
				}
				logger.Printf("Loaded \"%s\" with IR version %d and %d nodes\n", c.Args().First(), m.IRVersion, len(m.Graph.Nodes))

				matches := m.Graph.Filter(c.String("op"))

				if c.Bool("json") {
					if matches == nil {
						matches = []onnx.Match{}
					}
					if err := writeJSON(c.App.Writer, matches); err != nil {
						return cli.Exit(err, 1)
					}
					return nil
				}

				if err := onnx.Fprint(c.App.Writer, matches); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "catalog",
			Usage:       "List export sessions recorded in a catalog",
			Description: "Without SESSION every session is listed, otherwise the samples of that session.",
			ArgsUsage:   "DB [SESSION]",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "print as JSON",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := listCatalog(c); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
