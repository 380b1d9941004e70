package entity

// User is an account row as returned by identifier lookups. The password
// credential lives only inside the store and never crosses this boundary.
type User struct {
	ID       int64   `db:"user_id" json:"userID"`
	Username *string `db:"username" json:"userName"`
	Email    string  `db:"email" json:"email"`
}

// Profile is the authenticated self-view of an account.
type Profile struct {
	ID       int64   `json:"userID"`
	Username *string `json:"userName"`
	Email    string  `json:"email"`
}
