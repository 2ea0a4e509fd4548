// Package state holds the in-process mirror of the portfolio content. It is
// changed only by dispatching actions through pure reducers.
package state

import (
	"portfolio-backend-go/internal/models"
)

type Auth struct {
	User  *models.User `json:"user"`
	Token string       `json:"-"`
}

// IsAuthenticated reports whether a session token is held.
func (a Auth) IsAuthenticated() bool {
	return a.Token != ""
}

type State struct {
	About       *models.About       `json:"about"`
	Skills      []models.Skill      `json:"skills"`
	Projects    []models.Project    `json:"projects"`
	Experiences []models.Experience `json:"experiences"`
	Educations  []models.Education  `json:"educations"`
	Inbox       []models.Message    `json:"inbox"`
	Auth        Auth                `json:"auth"`
}

type Action interface {
	Type() string
}

// Entity is any list-backed slice item.
type Entity interface {
	models.Skill | models.Project | models.Experience | models.Education | models.Message
	GetID() string
}

type SetAll[T Entity] struct {
	Items []T `json:"items"`
}

type AddOne[T Entity] struct {
	Item T `json:"item"`
}

type UpdateOne[T Entity] struct {
	Item T `json:"item"`
}

type DeleteOne[T Entity] struct {
	ID string `json:"id"`
}

func (a SetAll[T]) Type() string    { return sliceName[T]() + "/setAll" }
func (a AddOne[T]) Type() string    { return sliceName[T]() + "/addOne" }
func (a UpdateOne[T]) Type() string { return sliceName[T]() + "/updateOne" }
func (a DeleteOne[T]) Type() string { return sliceName[T]() + "/deleteOne" }

type SetAbout struct {
	About models.About `json:"about"`
}

func (SetAbout) Type() string { return "about/set" }

// SetRead flips the read flag of one inbox message.
type SetRead struct {
	ID   string `json:"id"`
	Read bool   `json:"read"`
}

func (SetRead) Type() string { return "inbox/setRead" }

type SetCredentials struct {
	User  models.User
	Token string
}

func (SetCredentials) Type() string { return "auth/setCredentials" }

type Logout struct{}

func (Logout) Type() string { return "auth/logout" }

type listAction interface {
	Action
	apply(s *State)
}

func (a SetAll[T]) apply(s *State) {
	items := make([]T, len(a.Items))
	copy(items, a.Items)
	*listOf[T](s) = items
}

// AddOne prepends to the inbox and appends everywhere else.
func (a AddOne[T]) apply(s *State) {
	list := listOf[T](s)
	next := make([]T, 0, len(*list)+1)
	if sliceName[T]() == "inbox" {
		next = append(append(next, a.Item), *list...)
	} else {
		next = append(append(next, *list...), a.Item)
	}
	*list = next
}

func (a UpdateOne[T]) apply(s *State) {
	list := listOf[T](s)
	next := append([]T(nil), *list...)
	for i := range next {
		if next[i].GetID() == a.Item.GetID() {
			next[i] = a.Item
		}
	}
	*list = next
}

func (a DeleteOne[T]) apply(s *State) {
	list := listOf[T](s)
	next := make([]T, 0, len(*list))
	for _, item := range *list {
		if item.GetID() != a.ID {
			next = append(next, item)
		}
	}
	*list = next
}

// Reduce returns the state after applying action. The input state is never
// modified; slices that change are copied.
func Reduce(s State, action Action) State {
	next := s
	switch a := action.(type) {
	case listAction:
		a.apply(&next)
	case SetAbout:
		about := a.About
		next.About = &about
	case SetRead:
		inbox := append([]models.Message(nil), s.Inbox...)
		for i := range inbox {
			if inbox[i].ID == a.ID {
				inbox[i].Read = a.Read
			}
		}
		next.Inbox = inbox
	case SetCredentials:
		user := a.User
		next.Auth = Auth{User: &user, Token: a.Token}
	case Logout:
		next.Auth = Auth{}
	}
	return next
}

func sliceName[T Entity]() string {
	var zero T
	switch any(zero).(type) {
	case models.Skill:
		return "skills"
	case models.Project:
		return "projects"
	case models.Experience:
		return "experiences"
	case models.Education:
		return "educations"
	default:
		return "inbox"
	}
}

func listOf[T Entity](s *State) *[]T {
	var zero T
	var target any
	switch any(zero).(type) {
	case models.Skill:
		target = &s.Skills
	case models.Project:
		target = &s.Projects
	case models.Experience:
		target = &s.Experiences
	case models.Education:
		target = &s.Educations
	case models.Message:
		target = &s.Inbox
	}
	return target.(*[]T)
}
