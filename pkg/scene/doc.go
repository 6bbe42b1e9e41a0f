// Package scene provides the layered document model that controller rigs
// operate on.
//
// # Overview
//
// A [Scene] is an ordered stack of [Layer] values, the way a compositing
// host presents a composition: index 1 is the top layer, and indices follow
// order of appearance. Layers carry transform values, a list of named
// [Effect] parameters, and formula text per [Slot]. The host evaluates
// that text once per frame.
//
// Everything in riglink talks to a scene through the [Document] interface,
// which mirrors the operations a host scripting API exposes: enumerate
// layers, read and write formula text, add a null, remove a layer, add and
// set effect parameters, and manage the selection. [Scene] is the in-memory
// implementation; host adapters and test doubles implement the same
// interface.
//
// # Bindings
//
// A [Binding] records that a consumer layer's slot is driven by a
// controller. Bindings are stored on the scene and are the source of truth;
// the formula text written into the slot is derived from them.
//
// # Undo Groups
//
// Mutations made between [Scene.BeginUndoGroup] and the returned end
// function form a single undo step. Groups nest; only the outermost group
// records a step, and only when something changed.
//
// # Concurrency
//
// A Scene is not safe for concurrent use. Callers serialize access per scene.
package scene
