package models

import "fmt"

const DefaultLeaderboardSize = 10

type LeaderboardEntry struct {
	Email string `json:"email"`
	Score int64  `json:"score"`
}

// TableKey names one of the four (game, mode) score tables.
type TableKey struct {
	Game Game `json:"game"`
	Mode Mode `json:"mode"`
}

func (k TableKey) String() string {
	return fmt.Sprintf("%s_%s", k.Game, k.Mode)
}

// AllTables lists every table of the set; they reset together.
func AllTables() []TableKey {
	keys := make([]TableKey, 0, len(Games)*len(Modes))
	for _, g := range Games {
		for _, m := range Modes {
			keys = append(keys, TableKey{Game: g, Mode: m})
		}
	}
	return keys
}

type LeaderboardTable struct {
	Key      TableKey           `json:"key"`
	Date     string             `json:"date"`
	Entries  []LeaderboardEntry `json:"entries"`
	ResetsAt string             `json:"resets_at"`
	WasReset bool               `json:"-"`
}

type LeaderboardRow struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score string `json:"score"`
}

func (t *LeaderboardTable) Rows() []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(t.Entries))
	for i, e := range t.Entries {
		rows = append(rows, LeaderboardRow{
			Rank:  i + 1,
			Name:  DisplayName(e.Email),
			Score: FormatCoins(e.Score),
		})
	}
	return rows
}
