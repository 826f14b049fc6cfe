package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/banshee-data/broadside/internal/db"
	"github.com/banshee-data/broadside/internal/fleet"
	"github.com/banshee-data/broadside/internal/placement"
)

const defaultDBPath = "broadside.db"

func formatSpecs(specs []fleet.Spec) string {
	items := make([]string, len(specs))
	for i, s := range specs {
		items[i] = s.Name + ":" + strconv.Itoa(s.Size)
		if s.Orientation != "" {
			items[i] += ":" + s.Orientation
		}
	}
	return strings.Join(items, ",")
}

// runFleet manages fleets stored in the database.
func runFleet(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("fleet", stderr)
	dbPath := fs.String("db", defaultDBPath, "sqlite database")
	name := fs.String("name", "", "Fleet name (add)")
	ships := fs.String("ships", "", "Fleet specs (add), as accepted by heatmap -ships")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: broadside fleet [options] list | add | show <id> | delete <id>")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errUsage
	}

	store, err := db.NewDB(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	switch action := fs.Arg(0); action {
	case "list":
		fleets, err := store.ListFleets()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSPECS")
		for _, f := range fleets {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, f.Name, formatSpecs(f.Specs))
		}
		return tw.Flush()
	case "add":
		if *name == "" || *ships == "" {
			return fmt.Errorf("add needs -name and -ships")
		}
		specs, err := fleet.ParseSpecs(*ships)
		if err != nil {
			return err
		}
		f := fleet.New(*name, specs...)
		if err := store.SaveFleet(f); err != nil {
			return err
		}
		fmt.Fprintln(stdout, f.ID)
		return nil
	case "show", "delete":
		if fs.NArg() != 2 {
			fs.Usage()
			return errUsage
		}
		id := fs.Arg(1)
		if action == "delete" {
			return store.DeleteFleet(id)
		}
		f, err := store.GetFleet(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s %s\n", f.ID, f.Name)
		for i, s := range f.Specs {
			fmt.Fprintf(stdout, "  %d. %s size %d %s\n", i, s.Name, s.Size, orientationLabel(s.Orientation))
		}
		return nil
	default:
		fs.Usage()
		return errUsage
	}
}

func orientationLabel(o string) string {
	if o == "" {
		return "either"
	}
	return o
}

// runObjects edits an objects.json file of placed rectangles.
func runObjects(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("objects", stderr)
	path := fs.String("file", "objects.json", "objects file")
	var rec fleet.Record
	fs.StringVar(&rec.Name, "name", "", "Object name (add, replace)")
	fs.IntVar(&rec.Height, "height", 1, "Object height (add, replace)")
	fs.IntVar(&rec.Width, "width", 1, "Object width (add, replace)")
	fs.IntVar(&rec.Position[0], "x", 0, "Top row (add, replace)")
	fs.IntVar(&rec.Position[1], "y", 0, "Left column (add, replace)")
	index := fs.Int("index", -1, "Object index (remove, replace)")
	boardPath := fs.String("board", "", "Board to check the objects against (check)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: broadside objects [options] list | add | remove | replace | check")
		fs.PrintDefaults()
	}
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	records, err := fleet.LoadFile(*path)
	if err != nil {
		return err
	}
	inRange := func() error {
		if *index < 0 || *index >= len(records) {
			return fmt.Errorf("%w: %d of %d", fleet.ErrIndexOutOfRange, *index, len(records))
		}
		return nil
	}

	switch fs.Arg(0) {
	case "list":
		for i, r := range records {
			fmt.Fprintf(stdout, "%d. %s %dx%d at (%d, %d)\n", i, r.Name, r.Height, r.Width, r.Position[0], r.Position[1])
		}
		return nil
	case "add":
		if err := rec.Validate(); err != nil {
			return err
		}
		records = append(records, rec)
	case "remove":
		if err := inRange(); err != nil {
			return err
		}
		records = append(records[:*index], records[*index+1:]...)
	case "replace":
		if err := inRange(); err != nil {
			return err
		}
		if err := rec.Validate(); err != nil {
			return err
		}
		records[*index] = rec
	case "check":
		cfg, err := loadConfig("")
		if err != nil {
			return err
		}
		b, err := loadBoard(*boardPath, cfg)
		if err != nil {
			return err
		}
		layout, err := fleet.Layout(records)
		if err != nil {
			return err
		}
		if err := placement.CheckLayout(b, layout); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%d objects fit without overlap\n", len(records))
		return nil
	default:
		fs.Usage()
		return errUsage
	}
	return fleet.SaveFile(*path, records)
}
