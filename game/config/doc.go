// Package config provides race file management for the vector race server.
//
// The config package handles:
//   - Loading race files from a config directory
//   - Validation of tracks and strategy identifiers
//   - Default race selection
//   - Race file discovery and listing
//
// Race File Format:
//
// Race files use the .race extension. The track comes first, one row per
// line, followed by a line holding only "$". Every line after the sentinel
// declares one car as "<strategy> <glyph>":
//
//	#########
//	#^......-
//	#^......-
//	#########
//	$
//	bfs-bot a
//	random-bot b
//
// Tiles are '#' wall, '^' start, '-' victory, '.' road and ' ' air.
// Strategy identifiers are stopped-bot, random-bot, bfs-bot, dfs-bot and
// player, compared case-insensitively.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Load a specific race
//	race, err := manager.LoadConfig("classic")
//
//	// Get the default race
//	race = manager.GetDefault()
//
//	// List every valid race file
//	infos, err := manager.ListConfigs()
package config
