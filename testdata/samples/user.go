package usermodel

import (
	"time"
)

type UserData struct {
	User User `json:"user"`
}

type User struct {
	Id          int         `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	Roles       []string    `json:"roles"`
	Profile     Profile     `json:"profile"`
	Preferences Preferences `json:"preferences"`
	Stats       Stats       `json:"stats"`
}

type Profile struct {
	Bio       string `json:"bio"`
	AvatarUrl string `json:"avatar_url"`
	Age       int    `json:"age"`
}

type Preferences struct {
	Theme         string        `json:"theme"`
	Timezone      string        `json:"timezone"`
	Notifications Notifications `json:"notifications"`
}

type Notifications struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

type Stats struct {
	Logins   int         `json:"logins"`
	Score    float64     `json:"score"`
	LastSeen interface{} `json:"last_seen"`
}
