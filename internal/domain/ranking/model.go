package ranking

// Entry is one row of a tournament ranking. Rankings are derived on every
// read and never persisted.
type Entry struct {
	UserID      string
	DisplayName string
	TotalScore  int
	Rank        int
}
