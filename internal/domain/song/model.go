package song

// Song is a catalog entry referenced by tournament song pools and scores.
type Song struct {
	ID         string
	GameType   string
	Title      string
	Difficulty string
	Level      int
}
