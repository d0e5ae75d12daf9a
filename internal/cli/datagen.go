package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/neurlang/internal/adapter/datagen"
	"github.com/jeremyhahn/neurlang/internal/adapter/execassembler"
	"github.com/jeremyhahn/neurlang/internal/core/ports"
	"github.com/jeremyhahn/neurlang/pkg/eventbus"
	"github.com/jeremyhahn/neurlang/pkg/pool"
	"github.com/jeremyhahn/neurlang/theme"
)

// progressEvent is one datagen progress tick, published on the run's event
// bus and consumed here to drive the styled-logger report line.
type progressEvent struct {
	RunID     string
	Generated int
	Discarded int
	Done      bool
}

var linePool = pool.NewLitePool(func() *bytes.Buffer { return &bytes.Buffer{} })

func newDatagenCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datagen",
		Short: "synthesize (prompt, assembly) training examples",
	}
	cmd.AddCommand(newDatagenGenerateCmd(st))
	return cmd
}

func newDatagenGenerateCmd(st *state) *cobra.Command {
	var shape, out, assemblerCmd string
	var seed uint64
	var level, count int

	c := &cobra.Command{
		Use:   "generate",
		Short: "synthesize a JSONL batch of training examples validated against an external assembler",
		RunE: func(cmd *cobra.Command, args []string) error {
			if assemblerCmd == "" {
				return exitErr("--assembler is required: datagen validates every synthesized example against an external assembler binary")
			}

			cfg := datagen.Config{Seed: seed, Level: level, Count: count}
			switch shape {
			case "legacy":
				cfg.Shape = datagen.ShapeLegacy
			case "parallel":
				cfg.Shape = datagen.ShapeParallel
			default:
				return exitErr("unknown shape %q: want legacy or parallel", shape)
			}

			var assembler ports.Assembler = execassembler.New(assemblerCmd)
			gen := datagen.New(cfg, assembler)

			runID := uuid.NewString()
			bus := eventbus.New[progressEvent]()
			defer bus.Shutdown()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sub, unsubscribe := bus.Subscribe(ctx)
			defer unsubscribe()

			appTheme := theme.GetTheme(st.cfg.Logging.Theme)
			done := make(chan struct{})
			interactive := isInteractiveTerminal()
			var tuiUpdates chan progressMsg
			if interactive {
				tuiUpdates = make(chan progressMsg)
				go func() {
					defer close(done)
					runProgressTUI(tuiUpdates, count)
				}()
			}

			go func() {
				if !interactive {
					defer close(done)
				} else {
					defer close(tuiUpdates)
				}
				for evt := range sub {
					if interactive {
						tuiUpdates <- progressMsg{generated: evt.Generated, discarded: evt.Discarded, total: count, done: evt.Done}
					} else {
						st.styledLogger.Info("datagen progress", "run", evt.RunID,
							"generated", evt.Generated, "discarded", evt.Discarded)
					}
					if evt.Done {
						if !interactive {
							st.styledLogger.Info("datagen complete", "run", evt.RunID,
								"generated", evt.Generated, "discarded", evt.Discarded)
						}
						return
					}
				}
			}()

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()

			go reportProgress(ctx, bus, gen, runID)

			if cfg.Shape == datagen.ShapeLegacy {
				examples, genErr := gen.GenerateLegacy()
				if genErr != nil {
					return exitErr("generation failed: %v", genErr)
				}
				for _, ex := range examples {
					if err := writeJSONLine(f, ex); err != nil {
						return err
					}
					st.styledLogger.Debug("category", "name", theme.CategoryStyle(appTheme, ex.Category))
				}
			} else {
				examples, genErr := gen.GenerateParallel()
				if genErr != nil {
					return exitErr("generation failed: %v", genErr)
				}
				for _, ex := range examples {
					if err := writeJSONLine(f, ex); err != nil {
						return err
					}
					st.styledLogger.Debug("category", "name", theme.CategoryStyle(appTheme, ex.Category))
				}
			}

			bus.Publish(progressEvent{RunID: runID, Generated: gen.Stats.Generated, Discarded: gen.Stats.Discarded, Done: true})
			<-done

			st.styledLogger.Info("wrote dataset", "path", out, "generated", gen.Stats.Generated, "discarded", gen.Stats.Discarded)
			if interactive {
				fmt.Println(summaryBox(out, gen.Stats.Generated, gen.Stats.Discarded))
			}
			return nil
		},
	}

	c.Flags().Uint64Var(&seed, "seed", 1, "ChaCha8 RNG seed")
	c.Flags().IntVar(&level, "level", 3, "curriculum level (1-5)")
	c.Flags().IntVar(&count, "count", 100, "number of examples to generate")
	c.Flags().StringVar(&shape, "shape", "legacy", "output shape: legacy or parallel")
	c.Flags().StringVarP(&out, "output", "o", "dataset.jsonl", "JSONL output path")
	c.Flags().StringVar(&assemblerCmd, "assembler", "", "external assembler binary: reads assembly on stdin, writes a JSON program document on stdout")
	return c
}

// reportProgress polls the generator's running stats every 200ms and
// publishes them so the subscriber above can render progress without the
// generation loop itself depending on the logger. Stops when ctx is
// cancelled (the command's defer cancel() on return).
func reportProgress(ctx context.Context, bus *eventbus.EventBus[progressEvent], gen *datagen.Generator, runID string) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bus.Publish(progressEvent{RunID: runID, Generated: gen.Stats.Generated, Discarded: gen.Stats.Discarded})
		}
	}
}

func writeJSONLine(f *os.File, v any) error {
	buf := linePool.Get()
	defer linePool.Put(buf)

	enc := json.NewEncoder(buf)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding example: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing to output: %w", err)
	}
	return nil
}
