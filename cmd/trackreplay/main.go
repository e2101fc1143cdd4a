// Command trackreplay feeds a recorded stream of frames through the
// tracking engine and reports (and optionally records) what it selects.
//
// Frames are JSON Lines, one tracking.Frame per line. A line may carry an
// "outcome" field (true or false) reporting how engaging the previous
// selection went; it is forwarded to the corrector.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/tracksight/internal/config"
	"github.com/banshee-data/tracksight/internal/monitoring"
	"github.com/banshee-data/tracksight/internal/storage"
	"github.com/banshee-data/tracksight/internal/version"
)

var (
	configPath = flag.String("config", "", "Tuning config JSON (default: config/tuning.defaults.json)")
	framesPath = flag.String("frames", "-", "JSONL frame file, or - for stdin")
	dbPath     = flag.String("db", "", "SQLite file to record the session into (empty: do not record)")
	notes      = flag.String("notes", "", "Free-text notes stored with the session")
	resume     = flag.String("resume", "", "Session id to restore entities and network weights from (requires -db)")
	neuralFlag = flag.Bool("neural", false, "Enable the learned prediction corrector (overrides config)")
	debug      = flag.Bool("debug", false, "Log rejected observations")
	quiet      = flag.Bool("quiet", false, "Only print the final summary")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

// loadConfig reads path, or the repository defaults file when path is
// empty. Outside the repository the built-in defaults apply; they match
// the defaults file.
func loadConfig(path string) (*config.TuningConfig, error) {
	if path != "" {
		return config.LoadTuningConfig(path)
	}
	if _, err := os.Stat(config.DefaultConfigPath); err == nil {
		return config.LoadTuningConfig(config.DefaultConfigPath)
	}
	return config.EmptyTuningConfig(), nil
}

func openFrames(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String("trackreplay"))
		return
	}

	if *debug {
		monitoring.EnableDebug(true)
	}
	if *resume != "" && *dbPath == "" {
		log.Fatal("-resume requires -db")
	}

	tuning, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	in, err := openFrames(*framesPath)
	if err != nil {
		log.Fatalf("frames: %v", err)
	}
	defer in.Close()

	var store *storage.DB
	if *dbPath != "" {
		store, err = storage.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer store.Close()
	}

	opts := replayOptions{
		Tuning:   tuning,
		Neural:   *neuralFlag || tuning.GetNeuralEnabled(),
		DB:       store,
		Notes:    *notes,
		ResumeID: *resume,
		Quiet:    *quiet,
	}
	sum, err := replay(in, opts)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}

	fmt.Println(sum)
}
