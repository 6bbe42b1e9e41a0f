// Package io provides JSON and YAML import and export for scenes.
//
// # Overview
//
// A scene document carries everything a rig needs to survive a round trip:
// composition settings, layers with their effect parameters and formula
// text, the selection, and the binding records.
//
//	{
//	  "version": 1,
//	  "name": "comp",
//	  "width": 1920,
//	  "height": 1080,
//	  "frame_duration": 0.0333,
//	  "layers": [
//	    {"id": "…", "name": "Controller", "kind": "null", "label": 9,
//	     "position": [960, 540], "effects": [{"name": "Max Radius", "type": "slider", "value": [200]}]},
//	    {"id": "…", "name": "dot", "kind": "av",
//	     "expressions": {"position": "var controller = thisComp.layer(\"Controller\");…"}}
//	  ],
//	  "selection": ["…"],
//	  "bindings": [{"consumer_id": "…", "controller_name": "Controller", "slot": "position", "formula": "circular-position"}]
//	}
//
// The YAML form has the same keys.
//
// # Formats
//
// [Export] and [Import] pick the format from the file extension: ".yaml"
// and ".yml" select YAML, anything else JSON. [Marshal] and [Unmarshal]
// work on byte slices in JSON and are what the stores use.
//
// # Validation
//
// Reading rejects unknown document versions, invalid scene or layer names,
// duplicate layer IDs, and selections or bindings that reference layers
// the document does not contain.
package io
