// Package sparsegraph builds the non-zero pattern of global finite-element
// systems from per-element DOF connectivity lists.
//
// What is in the box:
//
//	sparse/          - Graph (map rows) and ContiguousGraph (locked row array),
//	                   RowSet, CSR export, versioned binary payloads
//	assembly/        - parallel builders over errgroup, OpenTelemetry spans
//	                   and metrics, deterministic random meshes
//	serialize/       - tag-keyed Serializer over memory or BadgerDB, zstd,
//	                   framed stream files with atomic rename
//	check/           - reference-map equivalence checks for graphs and CSR
//	ordering/        - reverse Cuthill–McKee, bandwidth and profile
//	cmd/sparsebench  - benchmark CLI (cobra + YAML config)
//
// Quick example:
//
//	elems := []assembly.Connectivity{{19, 11, 7, 39}, {11, 2, 3, 6}}
//	g, _ := assembly.BuildGraph(ctx, elems)
//	csr, _ := g.ExportCSR()
//	fmt.Println(csr.Row(11)) // [2 3 6 7 11 19 39]
//
//	s := serialize.New(serialize.WithCompression())
//	_ = s.Save("pattern", g)
//
// The pattern of an element with k DOFs is the full k×k block (diagonal
// included), so every graph built through AddEntries is symmetric. Content
// never depends on insertion order, worker count or merge order.
package sparsegraph
