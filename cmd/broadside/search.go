package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/broadside/internal/board"
	"github.com/banshee-data/broadside/internal/config"
	"github.com/banshee-data/broadside/internal/db"
	"github.com/banshee-data/broadside/internal/fleet"
	"github.com/banshee-data/broadside/internal/heatmap"
	"github.com/banshee-data/broadside/internal/monitoring"
	"github.com/banshee-data/broadside/internal/placement"
	"github.com/banshee-data/broadside/internal/shape"
)

// searchFlags are shared by heatmap and joint.
type searchFlags struct {
	configPath string
	boardPath  string
	objects    string
	ships      string
	mode       string
	dbPath     string
	pngPath    string
	htmlPath   string
	color      bool
	debug      bool
}

func (f *searchFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "Engine config JSON (default: "+config.DefaultConfigPath+" if present)")
	fs.StringVar(&f.boardPath, "board", "", "Text board file, one row per line (default: blank board of the configured size)")
	fs.StringVar(&f.objects, "objects", "", "objects.json of rectangles to search with instead of the fleet")
	fs.StringVar(&f.ships, "ships", "", `Fleet as "size[:orientation]" or "name:size[:orientation]" items, comma separated`)
	fs.StringVar(&f.mode, "mode", "", "Placement mode: non_conflicting or fully_consistent (default from config)")
	fs.StringVar(&f.dbPath, "db", "", "Record the run in this sqlite database")
	fs.StringVar(&f.pngPath, "png", "", "Write the heatmap as a PNG image")
	fs.StringVar(&f.htmlPath, "html", "", "Write the heatmap as an interactive HTML chart")
	fs.BoolVar(&f.color, "color", false, "Print the board with ANSI colours")
	fs.BoolVar(&f.debug, "debug", false, "Log engine diagnostics to stderr")
}

// loadConfig reads path, or the defaults file when present, or falls back
// to the built-in defaults.
func loadConfig(path string) (*config.EngineConfig, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return config.DefaultEngineConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	return config.LoadEngineConfig(path)
}

func loadBoard(path string, cfg *config.EngineConfig) (*board.Board, error) {
	if path == "" {
		return board.New(cfg.GetBoardHeight(), cfg.GetBoardWidth())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read board: %w", err)
	}
	return board.Parse(string(data))
}

// session is a resolved search command line.
type session struct {
	board  *board.Board
	pieces []shape.Piece
	search *placement.SearchConfig
}

func (f *searchFlags) resolve() (*session, error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	b, err := loadBoard(f.boardPath, cfg)
	if err != nil {
		return nil, err
	}

	var pieces []shape.Piece
	switch {
	case f.objects != "":
		records, err := fleet.LoadFile(f.objects)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, fmt.Errorf("%s has no objects", f.objects)
		}
		if pieces, err = fleet.RecordPieces(records); err != nil {
			return nil, err
		}
	case f.ships != "":
		specs, err := fleet.ParseSpecs(f.ships)
		if err != nil {
			return nil, err
		}
		if pieces, err = fleet.New("cli", specs...).Pieces(); err != nil {
			return nil, err
		}
	default:
		fl, err := fleet.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		if pieces, err = fl.Pieces(); err != nil {
			return nil, err
		}
	}

	search := placement.SearchConfigFromEngine(cfg)
	if f.mode != "" {
		m, err := placement.ParseMode(f.mode)
		if err != nil {
			return nil, err
		}
		search.WithMode(m)
	}
	return &session{board: b, pieces: pieces, search: search}, nil
}

func (f *searchFlags) printBoard(w io.Writer, b *board.Board) {
	if f.color {
		fmt.Fprintln(w, b.ColorString())
		return
	}
	fmt.Fprintln(w, b.String())
}

// render writes h to the requested image and chart files.
func (f *searchFlags) render(h *heatmap.Heatmap, title string) error {
	if f.pngPath != "" {
		if err := h.SavePNG(f.pngPath, title); err != nil {
			return err
		}
	}
	if f.htmlPath != "" {
		out, err := os.Create(f.htmlPath)
		if err != nil {
			return fmt.Errorf("create chart: %w", err)
		}
		if err := h.RenderHTML(out, title); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("close chart: %w", err)
		}
	}
	return nil
}

// record stores run in the -db database, if one was given.
func (f *searchFlags) record(run *db.Run, result interface{}) error {
	if f.dbPath == "" {
		return nil
	}
	store, err := db.NewDB(f.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	if run.Heatmap, err = json.Marshal(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return store.RecordRun(run)
}

func printGrid(w io.Writer, m mat.Matrix) {
	rows, cols := m.Dims()
	for r := 0; r < rows; r++ {
		cells := make([]string, cols)
		for c := 0; c < cols; c++ {
			cells[c] = fmt.Sprintf("%.3f", m.At(r, c))
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
}

func printBest(w io.Writer, m mat.Matrix, v board.View) {
	if cell, score, ok := heatmap.BestIn(m, v); ok {
		fmt.Fprintf(w, "Suggested target: %v (%.3f)\n", cell, score)
		return
	}
	fmt.Fprintln(w, "Suggested target: none")
}

func runHeatmap(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("heatmap", stderr)
	var f searchFlags
	f.register(fs)
	piece := fs.Int("piece", 0, "Index of the piece drawn by -png and -html")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	setDebug(stderr, f.debug)

	s, err := f.resolve()
	if err != nil {
		return err
	}
	if *piece < 0 || *piece >= len(s.pieces) {
		return fmt.Errorf("-piece must be between 0 and %d", len(s.pieces)-1)
	}

	start := time.Now()
	report := heatmap.NewReport(s.board, s.pieces, s.search.Mode)
	elapsed := monitoring.Timed("heatmap", start)
	expected := report.ExpectedMatrix()

	f.printBoard(stdout, s.board)
	fmt.Fprintln(stdout)
	for _, p := range report.Pieces {
		fmt.Fprintf(stdout, "%s: %d placements\n", p.Name, p.Heatmap.Total())
	}
	fmt.Fprintln(stdout, "\nExpected objects per cell:")
	printGrid(stdout, expected)
	printBest(stdout, expected, s.board)

	chosen := report.Pieces[*piece]
	if err := f.render(chosen.Heatmap, "Occupancy of "+chosen.Name); err != nil {
		return err
	}
	return f.record(&db.Run{
		Kind:      db.KindHeatmap,
		Board:     s.board.String(),
		Mode:      s.search.Mode.String(),
		Total:     report.Total(),
		ElapsedMs: elapsed.Milliseconds(),
	}, report)
}

func runJoint(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("joint", stderr)
	var f searchFlags
	f.register(fs)
	maxLayouts := fs.Int("max-layouts", -1, "Stop after this many layouts, 0 for no cap (default from config)")
	budget := fs.Duration("time-budget", -1, "Stop after this long, 0 for no limit (default from config)")
	layoutsPath := fs.String("layouts", "", `Write every layout as "X, Y Coordinates" lines to this file ("-" for stdout)`)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	setDebug(stderr, f.debug)

	s, err := f.resolve()
	if err != nil {
		return err
	}
	if *maxLayouts >= 0 {
		s.search.WithMaxLayouts(*maxLayouts)
	}
	if *budget >= 0 {
		s.search.WithTimeBudget(*budget)
	}
	if err := s.search.Validate(); err != nil {
		return err
	}

	search := placement.NewJointSearch(s.board, s.pieces, s.search.Options()...)
	h, w := s.board.Dims()
	acc := heatmap.NewAccumulator(h, w)
	var layouts []placement.Layout
	for l := range search.Layouts(ctx) {
		acc.AddLayout(l)
		if *layoutsPath != "" {
			layouts = append(layouts, l)
		}
	}
	hm := acc.Heatmap()
	outcome := search.Outcome()

	f.printBoard(stdout, s.board)
	fmt.Fprintf(stdout, "\n%d layouts, %d nodes, %v", outcome.Layouts, outcome.Nodes, outcome.Elapsed.Round(time.Microsecond))
	if outcome.Truncated {
		fmt.Fprintf(stdout, " (truncated: %s)", outcome.Reason)
	}
	fmt.Fprintln(stdout)
	if hm.Total() > 0 {
		fmt.Fprintln(stdout, "\nJoint occupancy:")
		printGrid(stdout, hm.Matrix())
		printBest(stdout, hm.Matrix(), s.board)
	}

	if err := writeLayouts(*layoutsPath, stdout, layouts); err != nil {
		return err
	}
	if err := f.render(hm, "Joint occupancy"); err != nil {
		return err
	}
	return f.record(&db.Run{
		Kind:      db.KindJoint,
		Board:     s.board.String(),
		Mode:      s.search.Mode.String(),
		Total:     hm.Total(),
		Truncated: outcome.Truncated,
		Reason:    outcome.Reason.String(),
		ElapsedMs: outcome.Elapsed.Milliseconds(),
	}, hm)
}

func writeLayouts(path string, stdout io.Writer, layouts []placement.Layout) error {
	switch path {
	case "":
		return nil
	case "-":
		return fleet.WriteLayouts(stdout, layouts)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create layouts file: %w", err)
	}
	if err := fleet.WriteLayouts(out, layouts); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
