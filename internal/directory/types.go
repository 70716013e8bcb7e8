package directory

import "time"

// User is a directory account as exchanged with the scripts.
// Password is write-only: it travels to addUser/editUser on stdin and
// is never echoed in listings or API responses.
type User struct {
	SamAccountName string   `json:"samAccountName"`
	GivenName      string   `json:"givenName"`
	SN             string   `json:"sn"`
	Password       string   `json:"password,omitempty"`
	OU             string   `json:"ou"`
	Groups         []string `json:"groups"`
}

// UserUpdate carries a partial edit. Nil fields are left untouched.
type UserUpdate struct {
	GivenName *string   `json:"givenName,omitempty"`
	SN        *string   `json:"sn,omitempty"`
	Password  *string   `json:"password,omitempty"`
	OU        *string   `json:"ou,omitempty"`
	Groups    *[]string `json:"groups,omitempty"`
}

// Event classifies a raw log entry.
type Event string

const (
	EventConnect    Event = "connect"
	EventDisconnect Event = "disconnect"
	EventOther      Event = "other"
)

// LogEntry is one record of the external, append-only lab event log.
type LogEntry struct {
	User    string    `json:"user"`
	Event   Event     `json:"event"`
	IP      string    `json:"ip"`
	Lab     string    `json:"lab"`
	Date    time.Time `json:"date"`
	Details string    `json:"details"`
}

// DeleteResult is the scripts' response to deleteUser.
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
