package domain

import "time"

// User is a registered account. Authentication itself happens upstream;
// the API trusts the identity injected by the gateway and resolves it to
// this record once per request.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
