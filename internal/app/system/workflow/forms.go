package workflow

import (
	"strings"

	userstore "github.com/dalemusser/clubhub/internal/app/store/users"
	"github.com/dalemusser/clubhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/clubhub/internal/app/system/normalize"
)

// ApplicationForm is the team application a student or guest submits.
// Games may be empty and jersey size is optional.
type ApplicationForm struct {
	Gamertag      string   `json:"gamertag" validate:"notblank,max=32"`
	Discord       string   `json:"discord" validate:"notblank,max=64"`
	Grade         int      `json:"grade" validate:"min=9,max=12"`
	GPA           *float64 `json:"gpa" validate:"required,min=0,max=5"`
	GuardianName  string   `json:"guardian_name" validate:"notblank,max=100"`
	GuardianEmail string   `json:"guardian_email" validate:"required,email"`
	JerseySize    string   `json:"jersey_size" validate:"jersey_size"`
	Games         []string `json:"games" validate:"max=10,dive,notblank,max=40"`
}

func (f ApplicationForm) clean() ApplicationForm {
	f.Gamertag = htmlsanitize.Text(f.Gamertag)
	f.Discord = htmlsanitize.Text(f.Discord)
	f.GuardianName = normalize.Name(htmlsanitize.Text(f.GuardianName))
	f.GuardianEmail = normalize.Email(f.GuardianEmail)
	f.JerseySize = strings.ToUpper(strings.TrimSpace(f.JerseySize))
	f.Games = normalize.Games(htmlsanitize.Texts(f.Games))
	return f
}

func (f ApplicationForm) application() *userstore.Application {
	app := &userstore.Application{
		Gamertag:      f.Gamertag,
		Discord:       f.Discord,
		Grade:         f.Grade,
		GuardianName:  f.GuardianName,
		GuardianEmail: f.GuardianEmail,
		JerseySize:    f.JerseySize,
		Games:         f.Games,
	}
	if f.GPA != nil {
		app.GPA = *f.GPA
	}
	return app
}

// ProfileForm is a self-service profile edit. Absent fields are left
// unchanged. It has no role or status field, so a request body carrying
// them has no effect.
type ProfileForm struct {
	DisplayName *string   `json:"display_name" validate:"omitnil,notblank,max=80"`
	Gamertag    *string   `json:"gamertag" validate:"omitnil,max=32"`
	Discord     *string   `json:"discord" validate:"omitnil,max=64"`
	Bio         *string   `json:"bio" validate:"omitnil,max=500"`
	JerseySize  *string   `json:"jersey_size" validate:"omitnil,jersey_size"`
	Games       *[]string `json:"games" validate:"omitnil,max=10,dive,notblank,max=40"`
}

func (f ProfileForm) clean() ProfileForm {
	f.DisplayName = htmlsanitize.TextPtr(f.DisplayName)
	if f.DisplayName != nil {
		*f.DisplayName = normalize.Name(*f.DisplayName)
	}
	f.Gamertag = htmlsanitize.TextPtr(f.Gamertag)
	f.Discord = htmlsanitize.TextPtr(f.Discord)
	f.Bio = htmlsanitize.TextPtr(f.Bio)
	if f.JerseySize != nil {
		js := strings.ToUpper(strings.TrimSpace(*f.JerseySize))
		f.JerseySize = &js
	}
	if f.Games != nil {
		g := normalize.Games(htmlsanitize.Texts(*f.Games))
		if g == nil {
			g = []string{}
		}
		f.Games = &g
	}
	return f
}

func (f ProfileForm) update() userstore.ProfileUpdate {
	return userstore.ProfileUpdate{
		DisplayName: f.DisplayName,
		Gamertag:    f.Gamertag,
		Discord:     f.Discord,
		Bio:         f.Bio,
		JerseySize:  f.JerseySize,
		Games:       f.Games,
	}
}

// RosterForm is a coach's edit of another member. Role, when present,
// is applied as a manual role assignment.
type RosterForm struct {
	Gamertag *string        `json:"gamertag" validate:"omitnil,max=32"`
	Discord  *string        `json:"discord" validate:"omitnil,max=64"`
	Stats    map[string]int `json:"stats" validate:"omitempty,max=4,dive,keys,oneof=goals assists wins mvps,endkeys,min=0"`
	Role     *string        `json:"role" validate:"omitnil,role"`
}

func (f RosterForm) clean() RosterForm {
	f.Gamertag = htmlsanitize.TextPtr(f.Gamertag)
	f.Discord = htmlsanitize.TextPtr(f.Discord)
	return f
}

func (f RosterForm) update() userstore.RosterUpdate {
	return userstore.RosterUpdate{
		Gamertag: f.Gamertag,
		Discord:  f.Discord,
		Stats:    f.Stats,
	}
}

// changed lists the JSON names of the fields the form sets.
func (f RosterForm) changed() string {
	var names []string
	if f.Gamertag != nil {
		names = append(names, "gamertag")
	}
	if f.Discord != nil {
		names = append(names, "discord")
	}
	if f.Stats != nil {
		names = append(names, "stats")
	}
	if f.Role != nil {
		names = append(names, "role")
	}
	return strings.Join(names, ",")
}
