package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1F47E/go-framereel/pkg/config"
	"github.com/1F47E/go-framereel/pkg/core"
	"github.com/1F47E/go-framereel/pkg/core/progress"
	"github.com/1F47E/go-framereel/pkg/logger"
	"github.com/1F47E/go-framereel/pkg/meta"

	"github.com/urfave/cli"
)

var app = cli.NewApp()
var log = logger.Log

// set in main, commands stop between frames on SIGINT
var ctx = context.Background()

var shapeFlags = []cli.Flag{
	cli.IntFlag{Name: "frames, n", Usage: "frames count"},
	cli.IntFlag{Name: "height", Usage: "frame height in pixels"},
	cli.IntFlag{Name: "width", Usage: "frame width in pixels"},
	cli.IntFlag{Name: "channels, c", Usage: "samples per pixel the dat was written with, 3 or 4"},
}

func init() {
	app.Name = "framereel"
	app.Usage = "Convert frame image dirs to flat dat files and back"
	app.UsageText = "framereel [command] [flags]"
	app.HideVersion = true
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "debug", Usage: "debug logs, same as " + config.EnvDebug + "=1"},
		cli.BoolFlag{Name: "quiet, q", Usage: "no progress bars, warnings only"},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logger.SetDebug()
		}
		if c.GlobalBool("quiet") {
			logger.SetQuiet()
			progress.SetOutput(io.Discard)
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:    "encode",
			Aliases: []string{"e"},
			Usage:   "Encode original and processed frame dirs into two dat files",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "original", Usage: "original frames dir"},
				cli.StringFlag{Name: "processed", Usage: "processed frames dir"},
				cli.StringFlag{Name: "original-out", Usage: "original dat file"},
				cli.StringFlag{Name: "processed-out", Usage: "processed dat file"},
				cli.IntFlag{Name: "channels, c", Value: config.DefaultChannels, Usage: "samples per pixel, 3 or 4"},
				cli.IntFlag{Name: "downscale", Value: config.DefaultDownscale, Usage: "integer downscale factor"},
				cli.StringSliceFlag{Name: "ext", Usage: "frame extensions, default .jpg and .png"},
				cli.BoolFlag{Name: "header", Usage: "prefix dat files with a shape header"},
				cli.BoolFlag{Name: "meta", Usage: "write a <dat>.yaml record next to every dat file"},
			},
			Action: func(c *cli.Context) error {
				cfg := config.NewEncodeConfig(
					c.String("original"),
					c.String("processed"),
					c.String("original-out"),
					c.String("processed-out"),
				)
				cfg.Channels = c.Int("channels")
				cfg.Downscale = c.Int("downscale")
				if exts := c.StringSlice("ext"); len(exts) > 0 {
					cfg.Extensions = exts
				}
				cfg.Header = c.Bool("header")
				cfg.WriteMeta = c.Bool("meta")
				_, err := core.NewCore(ctx).Encode(cfg)
				return err
			},
		},
		{
			Name:    "decode",
			Aliases: []string{"d"},
			Usage:   "Decode a dat file into numbered png frames",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "in", Usage: "dat file"},
				cli.StringFlag{Name: "out", Usage: "output frames dir, created if missing"},
				cli.StringFlag{Name: "meta", Usage: "companion record to take the shape from"},
				cli.BoolFlag{Name: "header", Usage: "the dat file starts with a shape header"},
			}, shapeFlags...),
			Action: func(c *cli.Context) error {
				cfg := config.DecodeConfig{
					ArrayPath: c.String("in"),
					OutputDir: c.String("out"),
					Frames:    c.Int("frames"),
					Height:    c.Int("height"),
					Width:     c.Int("width"),
					Channels:  c.Int("channels"),
					Header:    c.Bool("header"),
					MetaPath:  c.String("meta"),
				}
				_, err := core.NewCore(ctx).Decode(cfg)
				return err
			},
		},
		{
			Name:      "test",
			Aliases:   []string{"t"},
			Usage:     "Run encode+decode on a frames dir and compare frames",
			ArgsUsage: "dir",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "channels, c", Value: config.DefaultChannels, Usage: "samples per pixel, 3 or 4"},
			},
			Action: func(c *cli.Context) error {
				dir, err := getArg(c, "Frames dir")
				if err != nil {
					return err
				}
				same, err := core.NewCore(ctx).Compare(dir, c.Int("channels"))
				if err != nil {
					return fmt.Errorf("Error comparing frames: %w", err)
				}
				if !same {
					return fmt.Errorf("Frames are different")
				}
				log.Info("Frames are the same")
				return nil
			},
		},
		{
			Name:      "alloc",
			Aliases:   []string{"a"},
			Usage:     "Create a zero filled dat file of a given shape",
			ArgsUsage: "file",
			Flags: append([]cli.Flag{
				cli.BoolFlag{Name: "header", Usage: "prefix the dat file with a shape header"},
				cli.BoolFlag{Name: "meta", Usage: "write a <dat>.yaml record next to the dat file"},
			}, shapeFlags...),
			Action: func(c *cli.Context) error {
				path, err := getArg(c, "Filename")
				if err != nil {
					return err
				}
				shape := meta.Shape{
					Frames:   c.Int("frames"),
					Height:   c.Int("height"),
					Width:    c.Int("width"),
					Channels: c.Int("channels"),
				}
				return core.NewCore(ctx).Allocate(path, shape, c.Bool("header"), c.Bool("meta"))
			},
		},
		{
			Name:  "flow",
			Usage: "Optical flow consistency check between ground truth and generated frames",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "gt", Usage: "ground truth frames dir"},
				cli.StringFlag{Name: "processed", Usage: "processed frames dir"},
				cli.StringFlag{Name: "generated", Usage: "generated frames dir"},
				cli.IntFlag{Name: "downscale", Value: config.DefaultDownscale, Usage: "integer downscale factor"},
			},
			Action: func(c *cli.Context) error {
				return core.NewCore(ctx).FlowConsistency(c.String("gt"), c.String("processed"), c.String("generated"), c.Int("downscale"))
			},
		},
	}
}

func getArg(c *cli.Context, name string) (string, error) {
	f := c.Args().Get(0)
	if f == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return f, nil
}

func main() {
	var stop context.CancelFunc
	ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := app.Run(os.Args)
	if err != nil {
		stop()
		log.Fatal(err)
	}
}
