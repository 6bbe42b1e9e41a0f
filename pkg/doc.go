// Package pkg holds the riglink libraries.
//
// # Overview
//
// Riglink drives the position and scale of layers in a scene from
// controller layers, through generated formula text and binding records
// stored next to the scene. The packages split into:
//
//  1. [scene] - the document model: layers, formula slots, binding records, undo groups
//  2. [controller], [params] - controller kinds, naming, parameter schemas and repair
//  3. [formula], [binding] - formula text, evaluation, applying and recovering bindings
//  4. [cleanup], [rig] - sweeping controllers and the operations the CLI and API call
//  5. [store], [io], [config] - persistence backends, import/export, configuration
//  6. [api], [render], [cache], [observability] - HTTP surface, binding graphs, events
//
// # Data Flow
//
//	scene (store/io)
//	     ↓
//	[rig] Runner.CreateController / ApplyBinding / Cleanup
//	     ↓
//	[formula] text in layer slots + [scene] binding records
//	     ↓
//	store.Scenes.Save (one undo step)
package pkg
