// Package catalog loads categories and board definitions.
//
// A catalog is a file system with this layout:
//
//	catalog.json          categories, their levels, and the daily puzzle pool
//	boards/<id>.json      one board definition per board id
//
// Spaces in board ids are written as underscores in file names, so the board
// "Daily Puzzle_0" lives in boards/Daily_Puzzle_0.json.
//
// The daily puzzle pool is exposed as a synthetic category named
// DailyPuzzleCategory. Its level i is the board FormatID("Daily Puzzle", i).
//
// Content bundled with the binary is available through Defaults; a directory
// on disk can be used instead with NewDirManager. Parsed boards are validated
// with board.ValidateDefinition and cached for the life of the Manager.
package catalog
