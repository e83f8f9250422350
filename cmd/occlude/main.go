// Command occlude masks the visibility of a target image where an occluder
// image blocks it: the occluder's alpha channel is folded into the target's
// alpha channel, pixel by pixel, leaving all color data untouched.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/renderloop/occlusion/engine"
	"github.com/renderloop/occlusion/guest"
	"github.com/renderloop/occlusion/host"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

func main() {
	var (
		targetFile   = flag.String("target", "", "Path to the target image")
		occluderFile = flag.String("occluder", "", "Path to the occluder image")
		outFile      = flag.String("out", "out.png", "Output PNG path")
		native       = flag.Bool("native", false, "Run the pure Go guest instead of the wasm guest")
		pages        = flag.Uint("pages", 0, "Guest memory limit in 64KiB pages (0 = default)")
		verbose      = flag.Bool("v", false, "Enable debug logging")
		interactive  = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
		engine.SetLogger(logger)
	}

	if *interactive {
		if err := runInteractive(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *targetFile == "" || *occluderFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: occlude -target <image> -occluder <image> [-out out.png] [-native]")
		fmt.Fprintln(os.Stderr, "       occlude -i  (interactive mode)")
		os.Exit(1)
	}

	summary, err := run(*targetFile, *occluderFile, *outFile, *native, uint32(*pages))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(summary)
}

type result struct {
	bounds   image.Rectangle
	bytes    int
	engine   string
	out      string
	duration time.Duration
}

func run(targetFile, occluderFile, outFile string, native bool, pages uint32) (string, error) {
	target, err := loadNRGBA(targetFile)
	if err != nil {
		return "", fmt.Errorf("load target: %w", err)
	}
	occluder, err := loadNRGBA(occluderFile)
	if err != nil {
		return "", fmt.Errorf("load occluder: %w", err)
	}

	// The two buffers must cover the same pixel footprint.
	occluder = scaleTo(occluder, target.Bounds())

	start := time.Now()
	var out *image.NRGBA
	if native {
		out, err = compositeNative(target, occluder)
	} else {
		out, err = compositeWasm(target, occluder, pages)
	}
	if err != nil {
		return "", err
	}
	elapsed := time.Since(start)

	if err := savePNG(outFile, out); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}

	engineName := "wasm"
	if native {
		engineName = "native"
	}
	return formatSummary(result{
		bounds:   target.Bounds(),
		bytes:    len(target.Pix),
		engine:   engineName,
		out:      outFile,
		duration: elapsed,
	}), nil
}

// compositeWasm routes the pixels through the wasm guest: reserve two
// buffers in guest memory, write both images in, composite, read back.
func compositeWasm(target, occluder *image.NRGBA, pages uint32) (*image.NRGBA, error) {
	ctx := context.Background()

	var opts []host.Option
	if pages > 0 {
		opts = append(opts, host.WithMemoryLimitPages(pages))
	}
	rt, err := host.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	defer rt.Close(ctx)

	mod, err := rt.LoadBuiltin(ctx)
	if err != nil {
		return nil, err
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	defer inst.Close(ctx)

	n := uint32(len(target.Pix))
	tb, err := inst.Reserve(ctx, n)
	if err != nil {
		return nil, err
	}
	ob, err := inst.Reserve(ctx, n)
	if err != nil {
		return nil, err
	}
	if err := inst.WritePixels(tb, target.Pix); err != nil {
		return nil, err
	}
	if err := inst.WritePixels(ob, occluder.Pix); err != nil {
		return nil, err
	}
	if err := inst.CompositeOcclusion(ctx, tb, ob); err != nil {
		return nil, err
	}

	pix, err := inst.ReadPixels(tb)
	if err != nil {
		return nil, err
	}
	out := &image.NRGBA{Pix: pix, Stride: target.Stride, Rect: target.Rect}
	return out, nil
}

// compositeNative runs the same pipeline through the in-process guest.
func compositeNative(target, occluder *image.NRGBA) (*image.NRGBA, error) {
	g := guest.New(guest.Config{})

	n := uint32(len(target.Pix))
	tb := g.Reserve(n)
	ob := g.Reserve(n)
	if err := g.WritePixels(tb, target.Pix); err != nil {
		return nil, err
	}
	if err := g.WritePixels(ob, occluder.Pix); err != nil {
		return nil, err
	}
	if err := g.Composite(tb, ob); err != nil {
		return nil, err
	}

	pix, err := g.ReadPixels(tb)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{Pix: pix, Stride: target.Stride, Rect: target.Rect}, nil
}

func formatSummary(r result) string {
	line := func(label, value string) string {
		return labelStyle.Render(label+": ") + valueStyle.Render(value)
	}
	return headerStyle.Render("occlude") + "\n" +
		line("size", fmt.Sprintf("%dx%d (%d bytes)", r.bounds.Dx(), r.bounds.Dy(), r.bytes)) + "\n" +
		line("engine", r.engine) + "\n" +
		line("composited in", r.duration.String()) + "\n" +
		line("wrote", r.out)
}
