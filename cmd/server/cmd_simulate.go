package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"starconquest-server/internal/convoy"
	"starconquest-server/internal/events"
	"starconquest-server/internal/game"
	"starconquest-server/internal/journal"
	"starconquest-server/internal/shared/config"
	"starconquest-server/internal/shared/logger"
)

type simulateReport struct {
	SessionID        string              `json:"session_id" yaml:"session_id"`
	Ticks            uint64              `json:"ticks" yaml:"ticks"`
	SimulatedSeconds float64             `json:"simulated_seconds" yaml:"simulated_seconds"`
	Stars            int                 `json:"stars" yaml:"stars"`
	OwnedStars       int                 `json:"owned_stars" yaml:"owned_stars"`
	ConvoysInFlight  int                 `json:"convoys_in_flight" yaml:"convoys_in_flight"`
	Dispatches       int                 `json:"dispatches" yaml:"dispatches"`
	Events           map[events.Type]int `json:"events" yaml:"events"`
	Journal          *journal.Result     `json:"journal,omitempty" yaml:"journal,omitempty"`
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the simulation headless and print a report",
		Long: `Run the simulation without a renderer for a fixed number of ticks. Every
few ticks each owned star sends half of its garrison to its first unowned
neighbour, which is enough to watch the territory spread.

Examples:
  starconquest simulate --ticks 6000 --format yaml
  starconquest simulate --source file:galaxy.json --journal run.lz4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")
			profilePath, _ := cmd.Flags().GetString("profile")
			ticks, _ := cmd.Flags().GetInt("ticks")
			elapsed, _ := cmd.Flags().GetFloat64("elapsed")
			every, _ := cmd.Flags().GetInt("dispatch-every")
			carryModel, _ := cmd.Flags().GetString("carry-model")
			home, _ := cmd.Flags().GetInt("home")
			seed, _ := cmd.Flags().GetInt64("seed")
			passThrough, _ := cmd.Flags().GetBool("pass-through")
			journalPath, _ := cmd.Flags().GetString("journal")
			format, _ := cmd.Flags().GetString("format")
			logLevel, _ := cmd.Flags().GetString("log-level")
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				format = "json"
			}

			switch format {
			case "text", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
			}
			if ticks <= 0 {
				return fmt.Errorf("--ticks must be positive")
			}

			log := logger.New(logLevel, false, cmd.ErrOrStderr())

			galaxies, err := newGalaxyService(nil, profilePath)
			if err != nil {
				return err
			}
			graph, err := galaxies.Load(cmd.Context(), source)
			if err != nil {
				return fmt.Errorf("failed to load galaxy %q: %w", source, err)
			}

			opts, err := sessionOptions(config.SimulationConfig{
				HomeStar:           home,
				CarryModel:         carryModel,
				Seed:               seed,
				PassThroughCapture: passThrough,
			})
			if err != nil {
				return err
			}

			rec := &events.Recorder{}
			bus := events.NewBus(rec)

			var jw *journal.Writer
			if journalPath != "" {
				jw, err = journal.Create(journalPath, log)
				if err != nil {
					return err
				}
				bus.Subscribe(jw)
			}

			session, err := game.NewSession(graph, opts, bus, log)
			if err != nil {
				if jw != nil {
					jw.Close()
				}
				return err
			}

			dispatches := 0
			for i := 0; i < ticks; i++ {
				if every > 0 && i%every == 0 {
					dispatches += expand(session)
				}
				session.Tick(elapsed)
			}

			report := simulateReport{
				SessionID:        session.ID(),
				Ticks:            session.TickCount(),
				SimulatedSeconds: float64(ticks) * elapsed,
				Stars:            graph.Len(),
				OwnedStars:       session.OwnedCount(),
				ConvoysInFlight:  len(session.Convoys()),
				Dispatches:       dispatches,
				Events:           rec.Counts(),
			}

			if jw != nil {
				if err := jw.Close(); err != nil {
					return fmt.Errorf("failed to close journal: %w", err)
				}
				res, err := journal.VerifyFile(journalPath)
				if err != nil {
					return fmt.Errorf("journal failed verification: %w", err)
				}
				report.Journal = &res
			}

			return writeReport(cmd.OutOrStdout(), format, report)
		},
	}

	cmd.Flags().String("source", "generate:1", "Galaxy source: file:<path> or generate:<seed>")
	cmd.Flags().String("profile", "", "YAML generator profile for generate: sources")
	cmd.Flags().Int("ticks", 3600, "Number of ticks to run")
	cmd.Flags().Float64("elapsed", 1.0/60, "Seconds of game time per tick")
	cmd.Flags().Int("dispatch-every", 120, "Ticks between expansion rounds (0 disables them)")
	cmd.Flags().String("carry-model", string(convoy.Batch), "Convoy carry model: batch or per_unit")
	cmd.Flags().Int("home", 0, "Home star ID")
	cmd.Flags().Int64("seed", 1, "Seed for convoy speeds and spawn jitter")
	cmd.Flags().Bool("pass-through", true, "Convoys fight unowned stars they fly over")
	cmd.Flags().String("journal", "", "Write a verified event journal to this file")
	cmd.Flags().String("format", "text", "Report format: text, json or yaml")
	cmd.Flags().String("log-level", "warn", "Log level for the run")

	return cmd
}

// expand sends from every owned star to its first unowned neighbour and
// returns the number of convoys dispatched.
func expand(s *game.Session) int {
	graph := s.Graph()
	stars := s.Stars()

	sent := 0
	for _, st := range stars {
		if !st.Owned {
			continue
		}
		for _, p := range graph.Neighbors(st.Position) {
			def, ok := graph.StarAt(p)
			if !ok || stars[def.ID].Owned {
				continue
			}
			if s.Dispatch(st.ID, def.ID).Status == game.DispatchSent {
				sent++
			}
			break
		}
	}
	return sent
}

func writeReport(w io.Writer, format string, report simulateReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "Session %s\n", report.SessionID)
	fmt.Fprintf(w, "  Ticks:        %d (%.1fs simulated)\n", report.Ticks, report.SimulatedSeconds)
	fmt.Fprintf(w, "  Owned stars:  %d / %d\n", report.OwnedStars, report.Stars)
	fmt.Fprintf(w, "  Dispatches:   %d\n", report.Dispatches)
	fmt.Fprintf(w, "  In flight:    %d\n", report.ConvoysInFlight)

	types := make([]string, 0, len(report.Events))
	for t := range report.Events {
		types = append(types, string(t))
	}
	sort.Strings(types)

	fmt.Fprintln(w, "  Events:")
	for _, t := range types {
		fmt.Fprintf(w, "    %-22s %d\n", t, report.Events[events.Type(t)])
	}

	if report.Journal != nil {
		fmt.Fprintf(w, "  Journal:      %d records, %d events, head %s\n",
			report.Journal.Records, report.Journal.Events, report.Journal.Head)
	}
	return nil
}
