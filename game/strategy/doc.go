// Package strategy implements the ways a car picks its next move.
//
// The set of strategies is closed: stopped-bot brakes to a halt, random-bot
// picks a random safe move, bfs-bot and dfs-bot search a reachability graph
// for a path to a victory tile, and player reads moves from a MoveReader.
// Factory maps race file identifiers to fresh strategy instances and rejects
// unknown identifiers.
//
// Graph strategies build their graph once, on their first turn, by expanding
// every position reachable under the acceleration model without crashing.
// The graph is stored as a node list with adjacency lists by index. The
// search runs whenever the pending path is empty and each turn consumes one
// position of it.
package strategy
