package cache

import (
	"strconv"
	"strings"
)

// Key templates. A cache key is its template followed by the request
// parameters, joined with ':'.
const (
	KeyScoreboard    = "scoreboard"
	KeyBasicGameInfo = "game:basic-info"
)

// ScoreboardKey returns the cache key of a game's scoreboard
func ScoreboardKey(gameID int64) string {
	return BuildKey(KeyScoreboard, strconv.FormatInt(gameID, 10))
}

// BuildKey joins a template and its parameters
func BuildKey(template string, params ...string) string {
	if len(params) == 0 {
		return template
	}
	return template + ":" + strings.Join(params, ":")
}
