package rewind_test

import (
	"context"
	"fmt"

	"github.com/aretw0/rewind"
	"github.com/aretw0/rewind/pkg/domain"
	"github.com/aretw0/rewind/pkg/dsl"
)

func Example() {
	b := dsl.New()
	b.Add("INTAKE").Produces("state.size").Go("REPORT")
	b.Add("REPORT").Produces("reports.visual").Aggregate()
	b.ReportsFixed("reports.visual")

	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	engine, err := rewind.New("", rewind.WithConfig(cfg))
	if err != nil {
		panic(err)
	}

	ctx := context.Background()
	traj := domain.NewTrajectory("demo")
	for _, action := range []map[string]any{
		{"type": "EXECUTE", "node": "INTAKE", "payload": map[string]any{"state.size": "normal"}},
		{"type": "EXECUTE", "node": "REPORT"},
		{"type": "ROLLBACK", "node": "INTAKE", "policy": "full_downstream"},
	} {
		res := engine.Step(ctx, traj, action)
		fmt.Println(res.Events[0])
	}
	fmt.Println(len(traj.Executed), traj.Steps)

	// Output:
	// EXECUTE INTAKE: wrote 1 fields
	// EXECUTE REPORT: wrote 1 fields
	// ROLLBACK INTAKE full_downstream: cleared 2 fields; removed nodes=[INTAKE REPORT]
	// 0 3
}

func ExampleEngine_Preview() {
	b := dsl.New()
	b.Add("A").Produces("a").Go("B", "C")
	b.Add("B").Produces("b").Aggregate()
	b.Add("C").Produces("c")

	cfg, _ := b.Build()
	engine, _ := rewind.New("", rewind.WithConfig(cfg))

	full, _ := engine.Preview("A", "full_downstream")
	agg, _ := engine.Preview("A", "aggregate_only")
	fmt.Println(full.Fields, full.Nodes)
	fmt.Println(agg.Fields, agg.Nodes)

	// Output:
	// [a b c] [A B C]
	// [a b] [A B]
}
