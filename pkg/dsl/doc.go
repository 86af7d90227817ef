/*
Package dsl provides a fluent Go builder for rule sets, as an alternative to the YAML rule
directory. It is handy for tests, generated workflows and embedding a fixed workflow in a binary.

Example usage:

	b := dsl.New()
	b.Add("INTAKE").Produces("state.thyroid_size").Go("TI-RADS")
	b.Add("TI-RADS").Produces("state.tirads_score").Aggregate().Go("VIS_REPORT")
	b.Add("VIS_REPORT").Produces("reports.visual_report").Aggregate()
	b.ReportsFixed("reports.visual_report")

	cfg, err := b.Build()
	if err != nil {
		return err
	}
	engine, err := rewind.New("", rewind.WithConfig(cfg))
*/
package dsl
