package services

import "portfolio-backend-go/internal/docstore"

type Collection string

const (
	CollectionSkills         Collection = "skills"
	CollectionProjects       Collection = "projects"
	CollectionExperiences    Collection = "experiences"
	CollectionQualifications Collection = "qualifications"
	CollectionMessages       Collection = "messages"
)

const (
	AdminDocPath = "portfolio/admin"
	StatsDocPath = "stats/portfolio-metrics"
	AccountsPath = "accounts"
)

// Path is the store location of the collection. Content collections live under
// the admin document; messages are top level.
func (c Collection) Path() string {
	if c == CollectionMessages {
		return string(c)
	}
	return docstore.Join(AdminDocPath, string(c))
}

func (c Collection) DocPath(id string) string {
	return docstore.Join(c.Path(), id)
}

// Label is the human readable name used in operation messages.
func (c Collection) Label() string {
	switch c {
	case CollectionProjects:
		return "Project"
	case CollectionSkills:
		return "Skill"
	case CollectionExperiences:
		return "Experience"
	case CollectionMessages:
		return "Message"
	default:
		return "Education/Qualification"
	}
}

func (c Collection) Valid() bool {
	switch c {
	case CollectionSkills, CollectionProjects, CollectionExperiences, CollectionQualifications, CollectionMessages:
		return true
	}
	return false
}
