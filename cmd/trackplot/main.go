// Command trackplot renders a recorded tracking session: a PNG of entity
// trajectories and an HTML page charting the selections over time.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/tracksight/internal/storage"
	"github.com/banshee-data/tracksight/internal/version"
)

var (
	dbPath    = flag.String("db", "tracksight.db", "SQLite file written by trackreplay")
	sessionID = flag.String("session", "", "Session id to plot (default: most recent)")
	outDir    = flag.String("out", "plots", "Output directory")
	list      = flag.Bool("list", false, "List recorded sessions and exit")
	showVer   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String("trackplot"))
		return
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if *list {
		sessions, err := db.Sessions()
		if err != nil {
			log.Fatalf("list sessions: %v", err)
		}
		for _, s := range sessions {
			fmt.Printf("%s  %s  %s\n", s.ID, s.StartedAt.Format("2006-01-02 15:04:05"), s.Notes)
		}
		return
	}

	var session storage.Session
	if *sessionID == "" {
		session, err = db.LatestSession()
	} else {
		session, err = db.GetSession(*sessionID)
	}
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	files, err := renderSession(db, session, *outDir)
	for _, f := range files {
		fmt.Println(f)
	}
	if err != nil {
		log.Fatalf("render: %v", err)
	}
}

// renderSession writes both outputs for session into dir and returns the
// paths written. A session with no entities or no selections skips that
// output rather than failing.
func renderSession(db *storage.DB, session storage.Session, dir string) ([]string, error) {
	var written []string

	states, err := db.LoadEntities(session.ID)
	if err != nil {
		return written, err
	}
	sels, err := db.Selections(session.ID)
	if err != nil {
		return written, err
	}

	pngPath := filepath.Join(dir, session.ID+"_trajectories.png")
	switch err := renderTrajectories(states, sels, session.ID, pngPath); {
	case errors.Is(err, errNoData):
		log.Printf("session %s has no entity history, skipping trajectories", session.ID)
	case err != nil:
		return written, err
	default:
		written = append(written, pngPath)
	}

	htmlPath := filepath.Join(dir, session.ID+"_selections.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return written, err
	}
	err = renderSelections(f, sels, session)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	switch {
	case errors.Is(err, errNoData):
		os.Remove(htmlPath)
		log.Printf("session %s has no selections, skipping chart", session.ID)
	case err != nil:
		return written, err
	default:
		written = append(written, htmlPath)
	}
	return written, nil
}
