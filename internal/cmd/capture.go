package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/admbahm/devinsight/internal/aggregator"
	"github.com/admbahm/devinsight/internal/config"
	"github.com/admbahm/devinsight/internal/filter"
	"github.com/admbahm/devinsight/internal/hub"
	"github.com/admbahm/devinsight/internal/ingest"
	"github.com/admbahm/devinsight/internal/model"
	"github.com/admbahm/devinsight/internal/output"
	"github.com/admbahm/devinsight/internal/prefs"
	"github.com/admbahm/devinsight/internal/server"
	"github.com/admbahm/devinsight/internal/source"
	"github.com/admbahm/devinsight/internal/storage"
	"github.com/admbahm/devinsight/internal/ui"
)

// interactiveBackfill is how many recent lines the viewer opens with
// when no explicit start time is given.
const interactiveBackfill = 100

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture adb logcat output",
	Long: `Capture streams adb logcat to the terminal. Standard mode filters raw
lines by severity letter and tag; interactive mode opens a scrollable viewer
with display-side filtering.

Examples:
  devinsight capture --filter E --tag ActivityManager
  devinsight capture --interactive --save --compress
  devinsight capture --save --serve :8080`,
	Args: cobra.NoArgs,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringP("filter", "f", "", "minimum severity to keep: E, W, I, D, V")
	captureCmd.Flags().StringP("tag", "t", "", "only keep lines whose tag contains this substring")
	captureCmd.Flags().BoolP("clear", "c", false, "clear device log buffers before capturing")
	captureCmd.Flags().StringP("since", "T", "", "start from 'YYYY-MM-DD HH:MM:SS'")
	captureCmd.Flags().StringP("buffer", "b", config.DefaultBuffer, "logcat buffer: main, system, crash, all")
	captureCmd.Flags().StringP("format", "v", config.DefaultFormat, "logcat format: brief, process, tag, thread, threadtime, raw")
	captureCmd.Flags().BoolP("interactive", "i", false, "open the interactive viewer")
	captureCmd.Flags().Bool("save", false, "persist parsed entries to rotated JSON files")
	captureCmd.Flags().String("save-path", config.DefaultSavePath, "directory for rotation files")
	captureCmd.Flags().Int64("max-size", config.DefaultMaxSizeMB, "rotation threshold in MB")
	captureCmd.Flags().Bool("compress", false, "zstd-compress rotated files (requires --save)")
	captureCmd.Flags().String("serve", "", "serve the live dashboard on this address, e.g. :8080")
	captureCmd.Flags().Bool("json", false, "emit parsed lines as JSON (standard mode)")

	cobra.CheckErr(viper.BindPFlags(captureCmd.Flags()))
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg := config.FromViper(viper.GetViper())
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	styles := output.DefaultStyles()
	if noColor {
		styles = output.PlainStyles()
	}
	console := output.NewTextRenderer(os.Stdout, styles)

	if cfg.Clear {
		if err := source.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Device log buffers cleared.")
	}

	// Persistence, with the compactor hanging off the rotation channel.
	var (
		store  *storage.Store
		events chan model.RotationEvent
	)
	if cfg.Save {
		if cfg.Compress {
			events = make(chan model.RotationEvent, 16)
		}
		st, err := storage.New(cfg.SavePath, cfg.MaxSizeBytes(), events)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		store = st
		if cfg.Compress {
			go storage.NewCompactor(events).Run(ctx)
		}
	}

	var storageFn func() *storage.Stats
	if store != nil {
		storageFn = func() *storage.Stats {
			st := store.Stats()
			return &st
		}
	}

	// The hub only exists when something subscribes to parsed entries.
	var h *hub.Hub
	if cfg.Interactive || cfg.Serve != "" {
		h = hub.New()
	}

	if cfg.Serve != "" {
		agg := aggregator.New(h.Subscribe(), h.Dropped, storageFn)
		go agg.Start(ctx)

		srv := server.New(h, agg, cfg.Serve)
		go func() {
			if err := srv.Start(); err != nil {
				log.Printf("dashboard: %v", err)
			}
		}()
		fmt.Fprintf(os.Stderr, "Dashboard on http://localhost%s\n", cfg.Serve)
	}

	opts := source.Options{Buffer: cfg.Buffer, Format: cfg.Format, Since: cfg.Since}
	if cfg.Interactive && cfg.Since == "" {
		opts.Tail = interactiveBackfill
	}

	stream, err := source.Open(ctx, opts)
	if err != nil {
		if errors.Is(err, source.ErrADBNotFound) {
			console.Errorf("adb not found: install platform-tools and connect a device")
		}
		return err
	}
	defer stream.Close()
	source.EmitMarker(ctx, "capture started")

	mode := ingest.Standard
	var flt *filter.Filter
	if cfg.Interactive {
		mode = ingest.Interactive
	} else if cfg.FilterLevel != "" || cfg.FilterTag != "" {
		flt = filter.New(cfg.FilterLevel, cfg.FilterTag)
	}

	loop := ingest.New(ingest.Config{Mode: mode, Filter: flt, Store: store, Hub: h})

	if cfg.Interactive {
		return runInteractive(ctx, stop, cfg, loop, stream, h, store, storageFn)
	}
	return runStandard(ctx, loop, stream, console, store)
}

// runStandard streams accepted raw lines to stdout until the source ends
// or the user interrupts.
func runStandard(ctx context.Context, loop *ingest.Loop, stream *source.Stream, console *output.TextRenderer, store *storage.Store) error {
	var renderer output.Renderer = console
	if viper.GetBool("json") {
		renderer = output.NewJSONRenderer(os.Stdout)
	} else {
		console.Banner("DevInsight — Android Log Capture")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(stream) }()

	for line := range loop.Lines() {
		if err := renderer.RenderRaw(line); err != nil {
			log.Printf("render: %v", err)
		}
	}

	err := <-errCh
	closeStore(store)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// runInteractive hands the hub subscription to the Bubble Tea viewer and
// tears the pipeline down when the user quits. Filter flags become the
// viewer's initial display filters.
func runInteractive(ctx context.Context, stop context.CancelFunc, cfg config.Config, loop *ingest.Loop, stream *source.Stream, h *hub.Hub, store *storage.Store, storageFn func() *storage.Stats) error {
	sub := h.Subscribe()

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(stream) }()

	uiErr := ui.Run(ui.Options{
		Entries:   sub,
		Dropped:   h.Dropped,
		Storage:   storageFn,
		Prefs:     prefs.Load(""),
		PrefsPath: prefs.DefaultPath(),
		MinLevel:  model.LevelFromLetter(cfg.FilterLevel),
		TagFilter: cfg.FilterTag,
	})

	// Quitting the viewer ends the capture: kill adb and let the loop
	// drain out.
	stop()
	stream.Close()
	<-errCh
	closeStore(store)

	return uiErr
}

// closeStore flushes the store and prints the session summary.
func closeStore(store *storage.Store) {
	if store == nil {
		return
	}
	stats := store.Stats()
	if err := store.Close(); err != nil {
		log.Printf("storage close: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Session %s: %d records, %d rotations, saved under %s\n",
		stats.Session, stats.Records, stats.Rotations, filepath.Dir(stats.ActiveFile))
}
