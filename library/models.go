package library

// User is a registered catalog owner. PasswordDigest holds the hex digest,
// never the plaintext.
type User struct {
	ID             int64  `json:"id"`
	Nickname       string `json:"nickname"`
	PasswordDigest string `json:"-"` // Don't serialize the digest
}

// Book is a reference to a file on local disk. Only the path is stored;
// the file itself is never read or copied.
type Book struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Path    string `json:"path"`
	OwnerID int64  `json:"owner_id"`
}
