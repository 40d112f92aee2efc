// Package config provides typed configuration for the annotator.
//
// # Architecture
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← ANNOTATOR_*
//	├─────────────────────────────┤
//	│  2. Configuration File      │  ← -config annotator.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// The file and environment layers are merged by the loader package and
// decoded over Default, so any setting left unspecified keeps its default.
// Command line flags such as -log-level are applied by the app package
// after loading.
//
// # Basic Usage
//
//	cfg, err := config.Load("annotator.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	opts := cfg.LayoutOptions()
//	table, err := cfg.CategoryTable()
//
// # Configuration Files
//
//	[layout]
//	batchSize = 50
//	padding = 10
//	baseLeft = 30
//	margin = 100
//	frameDelay = "16ms"
//
//	[canvas]
//	width = 500
//	height = 500
//
//	[render]
//	fontSize = 14
//	background = "#ffffff"
//
//	[selection]
//	category = 2
//
//	[[categories]]
//	id = 1
//	text = "Diagnosis"
//	fill = "#e3f2fd"
//
// # Environment Variables
//
// ANNOTATOR_SECTION_KEY sets section.key, with the key converted to
// camelCase: ANNOTATOR_LAYOUT_BATCH_SIZE sets layout.batchSize.
// ANNOTATOR_LOG_LEVEL is an alias for logging.level.
//
// # Error Handling
//
// Load returns a *loader.ParseError for malformed files and
// ValidationErrors when decoded values are out of range.
package config
