// A *Hypergrid* is an N-dimensional mesh of *vertices*, each hosting a
// wrapped reasoning capability, exchanging typed *thoughts* along
// dimension-labeled edges.
//
// ## How it works
//
// The first thing to do is to `Create` a `MeshOrchestrator` and decide the
// *rank* of your grid: how many dimensions every vertex coordinate has.
// Then `MeshOrchestrator.Register` nodes at distinct coordinates, each one
// backed by a `capability.Capability` adapter, and
// `MeshOrchestrator.Interwire` them along the dimensions you want thoughts
// to travel on.
//
// From there the mesh runs itself: every `OuroborosNode` owns a bounded
// inbox and a pump goroutine feeding it through its `GridCell`. The cell's
// output is routed by a `FlowPolicy`:
//
//   - `BroadcastPolicy` fans a thought out to every connected vertex along
//     its current dimension.
//   - `NearestPolicy` picks the single closest connected vertex under a
//     pluggable `DistanceMetric`.
//   - `DimensionalPolicy` walks one step along a fixed axis.
//
// `MeshOrchestrator.Inject` seeds a thought anywhere in the grid and
// `MeshOrchestrator.Tap` observes what a node emits, which together make a
// running mesh scriptable from the outside. The optional `ControlServer`
// exposes the same operations over HTTP.
//
// ## Design Principles
//
// The mesh never models an infallible capability: reasoning backends time
// out, rate-limit and fail, so failures travel *inside* the streams as
// failed elements instead of tearing connections down. Health is derived
// passively, from heartbeat age and the trailing error rate, never by
// calling into a node synchronously.
//
// Topology is data. Vertices and edges live in a `HypergridSpace` arena
// and routing is a pure function of it, so arbitrary cyclic meshes are
// fine and nothing ever chases pointers across the grid.
//
// Everything composes through `pkg/stream`: a small pull-driven stream
// algebra (`Map`, `Filter`, `Split`, `Merge`, `Confluence`) the mesh itself
// is built on, usable on its own.
package hypergrid
