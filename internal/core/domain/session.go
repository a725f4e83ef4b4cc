package domain

// Credentials are the two values persisted between client restarts.
type Credentials struct {
	Token    string
	Username string
}

// Empty reports whether nothing is persisted.
func (c Credentials) Empty() bool { return c.Token == "" && c.Username == "" }
