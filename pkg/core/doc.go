// Package core provides a small, stable facade over dlpscan's internal
// packages for programs that want to run DLP inspections without the CLI.
//
// Example:
//
//	s, err := core.ResolveSettings(".")
//	if err != nil { /* handle */ }
//	sc, err := core.NewScanner(ctx, s, nil)
//	if err != nil { /* handle */ }
//	res, err := sc.ScanWithBuiltinDetectors(ctx, sc.Project, text, nil, core.Likely)
//	if err != nil { /* handle */ }
//	_ = core.MarshalFindings(os.Stdout, res.Findings)
package core
