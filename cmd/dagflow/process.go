package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alexisbeaulieu97/dagflow/internal/dag"
	"github.com/alexisbeaulieu97/dagflow/internal/dynlib"
	"github.com/alexisbeaulieu97/dagflow/internal/logging"
	"github.com/alexisbeaulieu97/dagflow/internal/processor"
	"github.com/alexisbeaulieu97/dagflow/internal/scheduler"
	"github.com/alexisbeaulieu97/dagflow/internal/specloader"
)

// runProcess loads the document at path, builds a DAG, and runs it to
// completion on a fresh scheduler. It exits (via the returned error) non-nil
// on any failure processing the DAG.
func runProcess(ctx context.Context, log logging.Logger, path string, flags *Flags) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document %s: %w", path, err)
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse document %s: %w", path, err)
	}

	registry := dynlib.NewRegistry()
	loader := specloader.New(registry)

	d, err := loader.Load(doc)
	if err != nil {
		return fmt.Errorf("load DAG: %w", err)
	}

	sched := scheduler.New(flags.Workers, log, scheduler.Config{
		PollInterval:       flags.PollInterval,
		DelayBetweenStages: flags.DelayBetweenStages,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go sched.Startup(runCtx)
	defer sched.Shutdown()

	proc := processor.New(log)
	result, err := proc.Process(runCtx, d, sched)
	if err != nil {
		return fmt.Errorf("process DAG: %w", err)
	}
	if !result.Completed {
		return fmt.Errorf("DAG did not complete: vertices remained after peel")
	}

	failed := 0
	d.LinearTraversal(func(v *dag.Vertex) {
		if v.Status() == dag.Failed {
			failed++
		}
	})
	if failed > 0 {
		return fmt.Errorf("DAG processed with %d failed vertices", failed)
	}

	log.Info(ctx, "DAG processed successfully", "layers", len(result.Layers), "vertices", d.VertexCount())
	return nil
}
