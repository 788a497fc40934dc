// Package registry provides the central "glue" between node types and the
// code that evaluates them.
//
// Modules register evaluator code under a name: native Go functions under
// the node type name, GPU programs as "<Type>.wgsl" sources with a CPU
// kernel, scripts as "<Type>.js" sources run by the remote script host.
// Bind then matches every node type of a metanode table against the
// registered names and produces the Bindings the evaluation context runs.
// A node type may end up with any combination of the three variants.
//
// During application startup the registry is populated, validated against
// the node manifests so that Go parameter structs and manifests stay in
// sync, and bound once.
package registry
