package user

// Principal is the already-authenticated caller identity supplied by the
// account service.
type Principal struct {
	UserID      string
	DisplayName string
}
