package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/admbahm/devinsight/internal/config"
	"github.com/admbahm/devinsight/internal/index"
	"github.com/admbahm/devinsight/internal/model"
	"github.com/admbahm/devinsight/internal/output"
	"github.com/admbahm/devinsight/internal/replay"
	"github.com/admbahm/devinsight/internal/storage"
)

const importBatchSize = 500

var (
	replayJSON     bool
	replayFollow   bool
	replayStats    bool
	replayIndex    string
	replayCkpt     string
	replayQueryTag string
	replayQueryLvl string
	replayLimit    int
)

var replayCmd = &cobra.Command{
	Use:   "replay [dir]",
	Short: "Replay a captured session",
	Long: `Replay renders the rotation files of a capture directory in ingestion
order. With --follow it keeps streaming while another devinsight process is
still capturing, surviving rotations and compression. With --index it loads
the session into a SQLite database for querying.

Examples:
  devinsight replay logs
  devinsight replay logs --follow
  devinsight replay logs --index session.db --stats
  devinsight replay logs --index session.db --query-tag ActivityManager`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVar(&replayJSON, "json", false, "emit entries as JSON")
	replayCmd.Flags().BoolVar(&replayFollow, "follow", false, "keep following the active capture")
	replayCmd.Flags().BoolVar(&replayStats, "stats", false, "print per-level record counts")
	replayCmd.Flags().StringVar(&replayIndex, "index", "", "import records into this SQLite file")
	replayCmd.Flags().StringVar(&replayCkpt, "checkpoint", "", "follow-mode state file (default <dir>/.devinsight-state.json)")
	replayCmd.Flags().StringVar(&replayQueryTag, "query-tag", "", "query the index by tag (requires --index)")
	replayCmd.Flags().StringVar(&replayQueryLvl, "query-level", "", "query the index by level name (requires --index)")
	replayCmd.Flags().IntVar(&replayLimit, "limit", 20, "max rows returned by index queries")
}

func runReplay(cmd *cobra.Command, args []string) error {
	dir := config.DefaultSavePath
	if len(args) == 1 {
		dir = args[0]
	}

	var renderer output.Renderer
	if replayJSON {
		renderer = output.NewJSONRenderer(os.Stdout)
	} else {
		styles := output.DefaultStyles()
		if noColor {
			styles = output.PlainStyles()
		}
		renderer = output.NewTextRenderer(os.Stdout, styles)
	}

	if replayIndex != "" {
		return runIndexed(dir, renderer)
	}
	if replayQueryTag != "" || replayQueryLvl != "" {
		return fmt.Errorf("--query-tag and --query-level require --index")
	}
	if replayFollow {
		return runFollow(dir, renderer)
	}
	return runOneShot(dir, renderer)
}

// runOneShot renders every stored record once, in ingestion order.
func runOneShot(dir string, renderer output.Renderer) error {
	levels := make(map[string]int)
	tags := make(map[string]int)
	err := storage.NewReader().WalkDir(dir, func(rec model.StoredLog) error {
		levels[rec.Level]++
		tags[rec.Tag]++
		return renderer.RenderEntry(storedEntry(rec))
	})
	if err != nil {
		return fmt.Errorf("replay %s: %w", dir, err)
	}
	if replayStats {
		printLevelCounts(levels)
		printTopTags(tags, 10)
	}
	return nil
}

// runFollow streams the directory live until interrupted.
func runFollow(dir string, renderer output.Renderer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ckptPath := replayCkpt
	if ckptPath == "" {
		ckptPath = filepath.Join(dir, ".devinsight-state.json")
	}
	ckpt, err := replay.NewCheckpoint(ckptPath)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}

	w, err := replay.NewWatcher(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	f := replay.NewFollower(dir, w, ckpt)

	go w.Start(ctx)
	go f.Start(ctx)

	for rec := range f.Records() {
		if err := renderer.RenderEntry(storedEntry(rec)); err != nil {
			log.Printf("render: %v", err)
		}
	}
	return nil
}

// runIndexed imports the capture into SQLite, then answers stats and
// query flags from the database.
func runIndexed(dir string, renderer output.Renderer) error {
	db, err := index.Open(replayIndex)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer db.Close()

	session, _, err := storage.ReadManifest(dir)
	if err != nil {
		// Manifest-less directories still index, just without a session id.
		session = ""
	}

	// Re-running the import replaces the session instead of doubling it.
	if _, err := db.DeleteSession(session); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}

	var (
		batch    = make([]model.StoredLog, 0, importBatchSize)
		imported int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := db.ImportBatch(session, batch)
		imported += n
		batch = batch[:0]
		return err
	}

	walkErr := storage.NewReader().WalkDir(dir, func(rec model.StoredLog) error {
		batch = append(batch, rec)
		if len(batch) >= importBatchSize {
			return flush()
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("import %s: %w", dir, walkErr)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("import %s: %w", dir, err)
	}
	fmt.Fprintf(os.Stderr, "Indexed %d records into %s\n", imported, replayIndex)

	switch {
	case replayQueryTag != "":
		recs, err := db.QueryByTag(replayQueryTag, replayLimit)
		if err != nil {
			return err
		}
		renderStored(renderer, recs)
	case replayQueryLvl != "":
		recs, err := db.QueryByLevel(replayQueryLvl, replayLimit)
		if err != nil {
			return err
		}
		renderStored(renderer, recs)
	}

	if replayStats {
		counts, err := db.LevelCounts(session)
		if err != nil {
			return err
		}
		printLevelCounts(counts)
	}
	return nil
}

func renderStored(renderer output.Renderer, recs []model.StoredLog) {
	for _, rec := range recs {
		if err := renderer.RenderEntry(storedEntry(rec)); err != nil {
			log.Printf("render: %v", err)
		}
	}
}

// storedEntry converts a persisted record back into display form.
func storedEntry(rec model.StoredLog) model.LogEntry {
	return model.LogEntry{
		Level:     model.LevelFromString(rec.Level),
		Timestamp: rec.Timestamp.Format("01-02 15:04:05"),
		Tag:       rec.Tag,
		Message:   rec.Message,
	}
}

func printLevelCounts(counts map[string]int) {
	levels := make([]string, 0, len(counts))
	for level := range counts {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	fmt.Println("Level counts:")
	for _, level := range levels {
		fmt.Printf("  %-8s %d\n", level, counts[level])
	}
}

func printTopTags(counts map[string]int, n int) {
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > n {
		tags = tags[:n]
	}

	fmt.Println("Top tags:")
	for _, tag := range tags {
		fmt.Printf("  %-24s %d\n", tag, counts[tag])
	}
}
