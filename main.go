package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vesseltrace/tilecat/config"
	"github.com/vesseltrace/tilecat/fetch"
	"github.com/vesseltrace/tilecat/gfw"
	"github.com/vesseltrace/tilecat/mvt"
	"github.com/vesseltrace/tilecat/report"
	"github.com/vesseltrace/tilecat/thumbs"
)

const CONFIGFILE string = `config`
const URL string = `url`
const TILE string = `tile`
const MATCHED string = `matched`
const TOKEN string = `token`
const MAXFEATURES string = `maxFeatures`
const PRINTGEOMETRY string = `printGeometry`
const GEOMETRYWIDTH string = `geometryWidth`
const FIELDS string = `fields`
const TOPKEYS string = `topKeys`
const DECODEWORKERS string = `decodeWorkers`
const INPUT string = `input`
const OUTPUT string = `output`
const OUTPUTDIR string = `outputDir`
const INPUTDIR string = `inputDir`
const DATASET string = `dataset`
const WORKERS string = `workers`

//nolint:funlen
func main() {
	app := cli.NewApp()
	app.Name = "tilecat"
	app.Usage = "Fetch, decode and inspect Mapbox Vector Tiles and their thumbnails"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CONFIGFILE,
			Aliases: []string{"c"},
			Usage:   "Path to a TOML config file",
			EnvVars: []string{strcase.ToScreamingSnake(CONFIGFILE)},
		},
		&cli.StringFlag{
			Name:    TOKEN,
			Usage:   "API bearer token",
			EnvVars: []string{"GFW_TOKEN"},
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "fetch",
			Usage: "Fetch one vector tile and print its contents",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    URL,
					Aliases: []string{"u"},
					Usage:   "Tile URL, may contain {z}/{x}/{y} placeholders",
					EnvVars: []string{strcase.ToScreamingSnake(URL)},
				},
				&cli.StringFlag{
					Name:    TILE,
					Usage:   "Tile coordinate as z/x/y, substituted into the URL template",
					EnvVars: []string{strcase.ToScreamingSnake(TILE)},
				},
				&cli.StringFlag{
					Name:    MATCHED,
					Usage:   "Override the matched filter: true, false or any",
					EnvVars: []string{"GFW_MATCHED"},
				},
				&cli.IntFlag{
					Name:    MAXFEATURES,
					Value:   10,
					Usage:   "How many features to print per layer, 0 for all",
					EnvVars: []string{strcase.ToScreamingSnake(MAXFEATURES)},
				},
				&cli.BoolFlag{
					Name:    PRINTGEOMETRY,
					Usage:   "Print feature geometries as WKT",
					EnvVars: []string{strcase.ToScreamingSnake(PRINTGEOMETRY)},
				},
				&cli.UintFlag{
					Name:    GEOMETRYWIDTH,
					Value:   120,
					Usage:   "Truncate printed WKT to this many characters, 0 for no limit",
					EnvVars: []string{strcase.ToScreamingSnake(GEOMETRYWIDTH)},
				},
				&cli.StringSliceFlag{
					Name:    FIELDS,
					Aliases: []string{"f"},
					Usage:   "Print one line per feature with these property values",
					EnvVars: []string{strcase.ToScreamingSnake(FIELDS)},
				},
				&cli.IntFlag{
					Name:    TOPKEYS,
					Usage:   "Print the N most used property keys",
					EnvVars: []string{strcase.ToScreamingSnake(TOPKEYS)},
				},
				&cli.IntFlag{
					Name:    DECODEWORKERS,
					Value:   1,
					Usage:   "Decode layers concurrently with this many workers",
					EnvVars: []string{strcase.ToScreamingSnake(DECODEWORKERS)},
				},
			},
			Action: fetchCommand,
		},
		{
			Name:  "urls",
			Usage: "Build thumbnail URLs from a features JSON file",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    INPUT,
					Aliases: []string{"i"},
					Value:   "features.json",
					Usage:   "Features JSON file",
					EnvVars: []string{strcase.ToScreamingSnake(INPUT)},
				},
				&cli.StringFlag{
					Name:    OUTPUT,
					Aliases: []string{"o"},
					Value:   "img_urls.json",
					Usage:   "Where to write the URL list",
					EnvVars: []string{strcase.ToScreamingSnake(OUTPUT)},
				},
				&cli.StringFlag{
					Name:    DATASET,
					Usage:   "Thumbnail dataset id",
					Value:   gfw.DefaultDataset,
					EnvVars: []string{strcase.ToScreamingSnake(DATASET)},
				},
			},
			Action: urlsCommand,
		},
		{
			Name:  "download",
			Usage: "Download every thumbnail in a URL list",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    INPUT,
					Aliases: []string{"i"},
					Value:   "img_urls.json",
					Usage:   "URL list written by the urls command",
					EnvVars: []string{strcase.ToScreamingSnake(INPUT)},
				},
				&cli.StringFlag{
					Name:    OUTPUTDIR,
					Aliases: []string{"d"},
					Value:   "images",
					Usage:   "Directory for the downloaded files",
					EnvVars: []string{strcase.ToScreamingSnake(OUTPUTDIR)},
				},
				&cli.IntFlag{
					Name:    WORKERS,
					Usage:   "Concurrent downloads, defaults to the config value",
					EnvVars: []string{strcase.ToScreamingSnake(WORKERS)},
				},
			},
			Action: downloadCommand,
		},
		{
			Name:  "extract",
			Usage: "Extract PNG images from downloaded .bin payloads",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    INPUTDIR,
					Aliases: []string{"i"},
					Value:   "images",
					Usage:   "Directory with .bin files",
					EnvVars: []string{strcase.ToScreamingSnake(INPUTDIR)},
				},
				&cli.StringFlag{
					Name:    OUTPUTDIR,
					Aliases: []string{"d"},
					Value:   "images",
					Usage:   "Directory for the extracted images",
					EnvVars: []string{strcase.ToScreamingSnake(OUTPUTDIR)},
				},
			},
			Action: extractCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*config.Config, *logrus.Logger, *fetch.Client, error) {
	conf, err := config.Load(c.String(CONFIGFILE))
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := conf.InitLog()
	if err != nil {
		return nil, nil, nil, err
	}
	token := conf.API.Token
	if c.String(TOKEN) != "" {
		token = c.String(TOKEN)
	}
	client := &fetch.Client{
		HTTPClient: &http.Client{Timeout: time.Duration(conf.API.TimeoutSeconds) * time.Second},
		Token:      token,
		Origin:     conf.API.Origin,
		Retries:    conf.Fetch.Retries,
		Delay:      time.Duration(conf.Fetch.DelayMilliseconds) * time.Millisecond,
		Log:        log,
	}
	return conf, log, client, nil
}

func fetchCommand(c *cli.Context) error {
	_, _, client, err := setup(c)
	if err != nil {
		return err
	}

	rawURL := c.String(URL)
	if rawURL == "" {
		return errors.New("a tile URL is required")
	}
	if spec := c.String(TILE); spec != "" {
		tile, err := parseTile(spec)
		if err != nil {
			return err
		}
		rawURL = gfw.TileURL(rawURL, tile)
	}
	rawURL, err = gfw.AdjustMatchedFilter(rawURL, c.String(MATCHED))
	if err != nil {
		return err
	}

	body, err := client.FetchTile(c.Context, rawURL)
	if err != nil {
		return err
	}

	var tile *mvt.Tile
	if workers := c.Int(DECODEWORKERS); workers > 1 {
		tile, err = mvt.UnmarshalParallel(body, workers)
	} else {
		tile, err = mvt.Unmarshal(body)
	}
	if err != nil {
		var decodeErr *mvt.Error
		if errors.As(err, &decodeErr) {
			return fmt.Errorf("tile is corrupt: %w", decodeErr)
		}
		return err
	}

	report.Summary(os.Stdout, tile, c.Int(MAXFEATURES))
	if fields := c.StringSlice(FIELDS); len(fields) > 0 {
		fmt.Println()
		report.Fields(os.Stdout, tile, fields...)
	}
	if c.Bool(PRINTGEOMETRY) {
		fmt.Println()
		report.Geometries(os.Stdout, tile, c.Int(MAXFEATURES), c.Uint(GEOMETRYWIDTH))
	}
	if n := c.Int(TOPKEYS); n > 0 {
		fmt.Println()
		for _, kc := range report.TopKeys(tile, n) {
			fmt.Printf("%6d %s\n", kc.Count, kc.Key)
		}
	}
	return nil
}

func urlsCommand(c *cli.Context) error {
	features, err := gfw.LoadFeatures(c.String(INPUT))
	if err != nil {
		return err
	}
	urls := gfw.ThumbnailURLs(features, c.String(DATASET))
	if err := gfw.SaveURLList(c.String(OUTPUT), urls); err != nil {
		return err
	}
	fmt.Printf("wrote %d URL(s) to %s\n", len(urls), c.String(OUTPUT))
	return nil
}

func downloadCommand(c *cli.Context) error {
	conf, _, client, err := setup(c)
	if err != nil {
		return err
	}
	urls, err := gfw.LoadURLList(c.String(INPUT))
	if err != nil {
		return err
	}
	workers := c.Int(WORKERS)
	if workers <= 0 {
		workers = conf.Fetch.Workers
	}
	results, err := client.DownloadAll(c.Context, urls, c.String(OUTPUTDIR), workers)
	if err != nil {
		return err
	}
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	fmt.Printf("downloaded %d file(s), %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}

func extractCommand(c *cli.Context) error {
	_, log, _, err := setup(c)
	if err != nil {
		return err
	}
	converter := thumbs.Converter{Log: log}
	n, err := converter.ConvertDir(c.String(INPUTDIR), c.String(OUTPUTDIR))
	if err != nil {
		return err
	}
	fmt.Printf("extracted %d image(s)\n", n)
	return nil
}

// parseTile parses a z/x/y coordinate.
func parseTile(spec string) (maptile.Tile, error) {
	parts := strings.Split(spec, "/")
	if len(parts) != 3 {
		return maptile.Tile{}, fmt.Errorf("invalid tile %q, want z/x/y", spec)
	}
	nums := make([]uint64, 3)
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return maptile.Tile{}, fmt.Errorf("invalid tile %q: %w", spec, err)
		}
		nums[i] = n
	}
	return maptile.New(uint32(nums[1]), uint32(nums[2]), maptile.Zoom(nums[0])), nil
}
