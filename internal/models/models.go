package models

import (
	"encoding/json"
	"strings"
)

type SkillCategory string

const (
	CategoryProgramming SkillCategory = "programming"
	CategoryFrontend    SkillCategory = "frontend"
	CategoryBackend     SkillCategory = "backend"
	CategoryFullstack   SkillCategory = "fullstack"
	CategoryCloud       SkillCategory = "cloud"
	CategoryTools       SkillCategory = "tools"
)

type SkillLevel string

const (
	LevelExpert       SkillLevel = "expert"
	LevelAdvanced     SkillLevel = "advanced"
	LevelIntermediate SkillLevel = "intermediate"
	LevelBeginner     SkillLevel = "beginner"
)

type QualificationType string

const (
	QualificationDegree        QualificationType = "degree"
	QualificationCertification QualificationType = "professional-certification"
	QualificationDiploma       QualificationType = "diploma"
)

// StringList is a list of tags. It decodes from a JSON array or from a
// comma separated string, which is how older documents stored it.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*l = SplitList(raw)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// SplitList turns "React, Node.js, " into ["React", "Node.js"].
func SplitList(raw string) StringList {
	parts := strings.Split(raw, ",")
	items := make(StringList, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}

type ContactDetails struct {
	Email       string `json:"email"`
	GithubURL   string `json:"githubUrl,omitempty"`
	LinkedInURL string `json:"linkedInUrl,omitempty"`
	TwitterURL  string `json:"twitterUrl,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type About struct {
	ID             string         `json:"_id,omitempty"`
	Name           string         `json:"name"`
	Title          []string       `json:"title"`
	AvatarURL      string         `json:"avatarUrl,omitempty"`
	Description    string         `json:"description"`
	ResumeURL      string         `json:"resumeUrl,omitempty"`
	ContactDetails ContactDetails `json:"contactDetails"`
}

type Skill struct {
	ID         string        `json:"_id"`
	Name       string        `json:"name"`
	Category   SkillCategory `json:"category"`
	Level      SkillLevel    `json:"level,omitempty"`
	Icon       string        `json:"icon"`
	ColorClass string        `json:"colorClass,omitempty"`
	Order      *int          `json:"order,omitempty"`
}

func (s Skill) GetID() string { return s.ID }

type ProjectURL struct {
	Demo          string `json:"demo,omitempty"`
	Code          string `json:"code"`
	Image         string `json:"image,omitempty"`
	ImagePublicID string `json:"image_public_id,omitempty"`
}

type Project struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title"`
	Date        string     `json:"date"`
	URL         ProjectURL `json:"url"`
	Description string     `json:"description"`
	Stack       StringList `json:"stack"`
	Version     string     `json:"version,omitempty"`
	Icon        string     `json:"icon,omitempty"`
}

func (p Project) GetID() string { return p.ID }

type Experience struct {
	ID               string     `json:"_id"`
	Role             string     `json:"role"`
	Company          string     `json:"company"`
	StartingDate     string     `json:"starting_date"`
	EndingDate       string     `json:"ending_date"`
	Responsibilities string     `json:"responsibilities"`
	Skills           StringList `json:"skills"`
	Icon             string     `json:"icon,omitempty"`
}

func (e Experience) GetID() string { return e.ID }

type Education struct {
	ID           string            `json:"_id"`
	Title        string            `json:"title"`
	Institution  string            `json:"institution"`
	StartingDate string            `json:"starting_date"`
	EndingDate   string            `json:"ending_date"`
	Description  string            `json:"description"`
	Grade        string            `json:"grade"`
	Major        string            `json:"major"`
	Type         QualificationType `json:"type"`
}

func (e Education) GetID() string { return e.ID }

type Message struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Read    bool   `json:"read"`
}

func (m Message) GetID() string { return m.ID }

type User struct {
	ID    string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the signed-in admin identity plus the bearer token issued for it.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type ViewStats struct {
	Count             int64   `json:"count"`
	LastSnapshotDate  string  `json:"last_snapshot_date,omitempty"`
	LastSnapshotCount int64   `json:"last_snapshot_count"`
	WeeklyViews       int64   `json:"weekly_views"`
	TrendPercentage   float64 `json:"trend_percentage"`
}

// TimelineItem is an experience or education entry flattened for the
// public timeline.
type TimelineItem struct {
	ID          string   `json:"_id"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Place       string   `json:"place"`
	Major       string   `json:"major,omitempty"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	SortDate    int64    `json:"sortDate"`
	Period      string   `json:"period"`
}
