// digitpad draws digits on an off-screen pad, or uploads images,
// and prints the answer of a handwritten digit classification service.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/benoitkugler/digitpad/padconfig"
	"github.com/benoitkugler/digitpad/padinput"
	"github.com/benoitkugler/digitpad/padlog"
	"github.com/benoitkugler/digitpad/padraster"
	"github.com/benoitkugler/digitpad/padresult"
	"github.com/benoitkugler/digitpad/padsubmit"
	"golang.org/x/net/html"
)

var (
	configPath      = flag.String("config", "", "path to config file (toml, yaml or json)")
	endpoint        = flag.String("endpoint", "", "prediction URL, overrides the config")
	discover        = flag.Bool("discover", false, "look up the service with mDNS")
	discoverTimeout = flag.Duration("discover-timeout", 3*time.Second, "mDNS lookup duration")
	touch           = flag.Bool("touch", false, "replay strokes as touch events")
	origin          = flag.String("origin", "0,0", "viewport position of the canvas, for touch events")
	drawingPNG      = flag.String("png", "", "write the drawing to this PNG file")
	thumbnailPNG    = flag.String("thumbnail", "", "write the 28x28 model input preview to this PNG file")
	htmlOut         = flag.String("html", "", "write the result fragment to this HTML file")
	resultPNG       = flag.String("result-png", "", "write the result panel to this PNG file")
	pdfOut          = flag.String("pdf", "", "write the result report to this PDF file")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "draw":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, `Usage: digitpad draw "x,y x,y;x,y ..."`)
			os.Exit(1)
		}
		err = cmdDraw(ctx, strings.Join(flag.Args()[1:], " "))
	case "upload":
		path := ""
		if flag.NArg() >= 2 {
			path = flag.Arg(1)
		}
		err = cmdUpload(ctx, path)
	case "interactive":
		err = cmdInteractive(ctx, os.Stdin)
	case "discover":
		err = cmdDiscover(ctx)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `digitpad - handwritten digit pad

Usage: digitpad [options] <command> [args]

Commands:
  draw <script>    Draw strokes ("x,y x,y ..." separated by ';') and classify them
  upload [file]    Classify an image file
  interactive      Read commands from stdin: a stroke script, "upload <file>",
                   "clear" or "quit". The config file is reloaded on change.
  discover         Look up classification services on the local network
  help             Show this help message

Options:`)
	flag.PrintDefaults()
}

// app is the pad wired to a classification service.
type app struct {
	cfg      *padconfig.Config
	log      *slog.Logger
	surface  *padraster.Surface
	adapter  *padinput.Adapter
	player   player
	renderer *padresult.Renderer
	pipeline *padsubmit.Pipeline
	service  *swapClassifier

	html  *padresult.HTMLView
	image *padresult.ImageView
	pdf   *padresult.PDFView
}

func loadConfig(loader *padconfig.Loader) (*padconfig.Config, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	return withFlags(cfg, *endpoint, *discover), nil
}

// withFlags returns a copy of `cfg` with the command line overrides applied.
func withFlags(cfg *padconfig.Config, endpoint string, discover bool) *padconfig.Config {
	out := *cfg
	if endpoint != "" {
		out.Endpoint = endpoint
		out.Submit.Discover = false
	}
	if discover {
		out.Submit.Discover = true
	}
	return &out
}

func newApp(ctx context.Context, cfg *padconfig.Config) (*app, error) {
	log := padlog.New(cfg.Log, os.Stderr)
	slog.SetDefault(log)

	style, err := cfg.Canvas.Style()
	if err != nil {
		return nil, err
	}
	classifier, err := newClassifier(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		surface: padraster.NewSurface(cfg.Canvas.Width, cfg.Canvas.Height, style),
		service: &swapClassifier{current: classifier},
		html:    &padresult.HTMLView{},
		image:   &padresult.ImageView{},
		pdf:     &padresult.PDFView{},
	}
	a.adapter = padinput.NewAdapter(a.surface, log)
	a.player = player{target: a.adapter, touch: *touch}
	if _, err := fmt.Sscanf(*origin, "%g,%g", &a.player.canvas.Left, &a.player.canvas.Top); err != nil {
		return nil, fmt.Errorf("invalid origin %q: %s", *origin, err)
	}
	a.player.canvas.Width, a.player.canvas.Height = float64(cfg.Canvas.Width), float64(cfg.Canvas.Height)

	a.renderer = padresult.NewRenderer(padresult.MultiView{a.html, a.image, a.pdf},
		padresult.WithErrorTimeout(time.Duration(cfg.Result.ErrorTimeout)),
		padresult.WithLogger(log))
	a.pipeline = padsubmit.NewPipeline(a.surface, a.service, a.renderer, log)
	return a, nil
}

func newClassifier(ctx context.Context, cfg *padconfig.Config, log *slog.Logger) (*padsubmit.HTTPClassifier, error) {
	mode, err := padsubmit.ParseErrorMode(cfg.Submit.SchemaMode)
	if err != nil {
		return nil, err
	}
	url := cfg.Endpoint
	if cfg.Submit.Discover {
		url, err = padsubmit.Discover(ctx, cfg.Submit.Service, *discoverTimeout)
		if err != nil {
			return nil, err
		}
		log.Info("classification service found", "endpoint", url)
	}
	return padsubmit.NewHTTPClassifier(url, time.Duration(cfg.Submit.Timeout), mode, log), nil
}

// swapClassifier lets the service change while submissions are in flight.
type swapClassifier struct {
	mu      sync.RWMutex
	current padsubmit.Classifier
}

func (s *swapClassifier) Classify(ctx context.Context, req padsubmit.Request) (padresult.Prediction, error) {
	s.mu.RLock()
	c := s.current
	s.mu.RUnlock()
	return c.Classify(ctx, req)
}

func (s *swapClassifier) set(c padsubmit.Classifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = c
}

// wait blocks on `task` and prints the display it led to.
func (a *app) wait(ctx context.Context, task *padsubmit.Task) error {
	select {
	case <-task.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := (padresult.TextView{W: os.Stdout}).Render(a.renderer.Display()); err != nil {
		return err
	}
	_, err := task.Wait()
	return err
}

func (a *app) draw(ctx context.Context, script string) error {
	strokes, err := parseScript(script)
	if err != nil {
		return err
	}
	a.player.replay(strokes)
	a.log.Debug("strokes replayed", "strokes", len(strokes), "segments", a.surface.Segments(), "path", a.surface.Strokes())
	return a.wait(ctx, a.pipeline.SubmitDrawing(ctx))
}

func (a *app) upload(ctx context.Context, path string) error {
	var f *padsubmit.File
	if path != "" {
		var err error
		if f, err = padsubmit.LoadFile(path); err != nil {
			return err
		}
	}
	return a.wait(ctx, a.pipeline.SubmitFile(ctx, f))
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(padconfig.NewLoader(*configPath, nil))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return newApp(ctx, cfg)
}

func cmdDraw(ctx context.Context, script string) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	err = a.draw(ctx, script)
	if werr := a.writeOutputs(); werr != nil {
		return werr
	}
	return err
}

func cmdUpload(ctx context.Context, path string) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	err = a.upload(ctx, path)
	if werr := a.writeOutputs(); werr != nil {
		return werr
	}
	return err
}

func cmdDiscover(ctx context.Context) error {
	cfg, err := padconfig.Load(*configPath)
	if err != nil {
		return err
	}
	url, err := padsubmit.Discover(ctx, cfg.Submit.Service, *discoverTimeout)
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

// cmdInteractive reads one command per line. Failed submissions
// are shown and the session goes on.
func cmdInteractive(ctx context.Context, in io.Reader) error {
	loader := padconfig.NewLoader(*configPath, nil)
	defer loader.Close()
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	if *configPath != "" {
		loader.OnChange(func(cfg *padconfig.Config) {
			c, err := newClassifier(ctx, withFlags(cfg, *endpoint, *discover), a.log)
			if err != nil {
				a.log.Warn("keeping the previous service", "err", err)
				return
			}
			a.service.set(c)
			a.log.Info("classification service updated", "endpoint", c.Endpoint)
		})
		if err := loader.Watch(); err != nil {
			a.log.Warn("config is not watched", "err", err)
		}
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		var err error
		switch {
		case line == "":
			continue
		case line == "quit" || line == "exit":
			return a.writeOutputs()
		case line == "clear":
			a.surface.Clear()
			a.renderer.Clear()
		case line == "upload" || strings.HasPrefix(line, "upload "):
			err = a.upload(ctx, strings.TrimSpace(strings.TrimPrefix(line, "upload")))
		default:
			err = a.draw(ctx, line)
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		if err != nil {
			a.log.Debug("command failed", "command", line, "err", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return a.writeOutputs()
}

// writeOutputs saves the files requested on the command line.
func (a *app) writeOutputs() error {
	if *drawingPNG != "" {
		data, err := a.surface.ExportImage()
		if err != nil {
			return err
		}
		if err := os.WriteFile(*drawingPNG, data, 0o644); err != nil {
			return err
		}
	}
	if *thumbnailPNG != "" {
		if err := writeFile(*thumbnailPNG, func(w io.Writer) error {
			return png.Encode(w, a.surface.Thumbnail(28))
		}); err != nil {
			return err
		}
	}
	if *htmlOut != "" {
		if err := writeFile(*htmlOut, func(w io.Writer) error {
			return html.Render(w, a.html.Root())
		}); err != nil {
			return err
		}
	}
	if *resultPNG != "" {
		if err := writeFile(*resultPNG, func(w io.Writer) error {
			return png.Encode(w, a.image.Image())
		}); err != nil {
			return err
		}
	}
	if *pdfOut != "" {
		if err := os.WriteFile(*pdfOut, a.pdf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, encode func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
