package services

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"portfolio-backend-go/internal/models"

	"github.com/go-playground/validator/v10"
)

// Form is the submitted, UI-shaped payload for one collection. ToStorage
// validates it and returns the store-shaped document.
type Form interface {
	Collection() Collection
	ToStorage() (map[string]any, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return ErrBadRequest(err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return ErrBadRequest(fmt.Sprintf("%s is required", fe.Field()))
	case "email":
		return ErrBadRequest(fmt.Sprintf("%s must be a valid email address", fe.Field()))
	case "oneof":
		return ErrBadRequest(fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
	case "url":
		return ErrBadRequest(fmt.Sprintf("%s must be a valid URL", fe.Field()))
	default:
		return ErrBadRequest(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}

// Numeric accepts either a JSON number or a numeric string, the way form
// inputs submit them.
type Numeric string

func (n *Numeric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*n = Numeric(strings.TrimSpace(raw))
		return nil
	}
	*n = Numeric(data)
	return nil
}

// Int returns nil for a blank value.
func (n Numeric) Int() (*int, error) {
	if strings.TrimSpace(string(n)) == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) || math.Abs(parsed) > math.MaxInt32 {
		return nil, ErrBadRequest("order must be a number")
	}
	value := int(parsed)
	return &value, nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006-01",
}

// ParseDate converts a submitted date string into a timestamp.
func ParseDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, ErrBadRequest(fmt.Sprintf("invalid date: %q", raw))
}

// optionalDate maps a blank value to nil so open-ended ranges are stored as null.
func optionalDate(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return ParseDate(raw)
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		value := strings.TrimSpace(item)
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

type SkillForm struct {
	Name       string  `json:"name" validate:"required"`
	Category   string  `json:"category" validate:"required,oneof=programming frontend backend fullstack cloud tools"`
	Level      string  `json:"level" validate:"omitempty,oneof=expert advanced intermediate beginner"`
	Icon       string  `json:"icon" validate:"required"`
	ColorClass string  `json:"colorClass"`
	Order      Numeric `json:"order"`
}

func (f SkillForm) Collection() Collection { return CollectionSkills }

func (f SkillForm) ToStorage() (map[string]any, error) {
	if err := validateForm(f); err != nil {
		return nil, err
	}
	order, err := f.Order.Int()
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"name":       strings.TrimSpace(f.Name),
		"category":   f.Category,
		"level":      f.Level,
		"icon":       strings.TrimSpace(f.Icon),
		"colorClass": strings.TrimSpace(f.ColorClass),
	}
	if order != nil {
		data["order"] = *order
	}
	return data, nil
}

type ProjectURLForm struct {
	Image         string `json:"image"`
	ImagePublicID string `json:"image_public_id"`
	Demo          string `json:"demo" validate:"omitempty,url"`
	Code          string `json:"code" validate:"omitempty,url"`
}

type ProjectForm struct {
	Title       string            `json:"title" validate:"required"`
	Description string            `json:"description" validate:"required"`
	Date        string            `json:"date" validate:"required"`
	Version     string            `json:"version"`
	Icon        string            `json:"icon"`
	Stack       models.StringList `json:"stack"`
	URL         ProjectURLForm    `json:"url"`
}

func (f ProjectForm) Collection() Collection { return CollectionProjects }

func (f ProjectForm) ToStorage() (map[string]any, error) {
	if err := validateForm(f); err != nil {
		return nil, err
	}
	date, err := ParseDate(f.Date)
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"title":       strings.TrimSpace(f.Title),
		"description": strings.TrimSpace(f.Description),
		"date":        date,
		"version":     strings.TrimSpace(f.Version),
		"stack":       cleanList(f.Stack),
		"url": map[string]any{
			"image":           f.URL.Image,
			"image_public_id": f.URL.ImagePublicID,
			"demo":            strings.TrimSpace(f.URL.Demo),
			"code":            strings.TrimSpace(f.URL.Code),
		},
	}
	if icon := strings.TrimSpace(f.Icon); icon != "" {
		data["icon"] = icon
	}
	return data, nil
}

type ExperienceForm struct {
	Role             string            `json:"role" validate:"required"`
	Company          string            `json:"company" validate:"required"`
	StartingDate     string            `json:"starting_date" validate:"required"`
	EndingDate       string            `json:"ending_date"`
	Responsibilities string            `json:"responsibilities"`
	Skills           models.StringList `json:"skills"`
	Icon             string            `json:"icon"`
}

func (f ExperienceForm) Collection() Collection { return CollectionExperiences }

func (f ExperienceForm) ToStorage() (map[string]any, error) {
	if err := validateForm(f); err != nil {
		return nil, err
	}
	start, err := ParseDate(f.StartingDate)
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(f.EndingDate)
	if err != nil {
		return nil, err
	}
	data := map[string]any{
		"role":             strings.TrimSpace(f.Role),
		"company":          strings.TrimSpace(f.Company),
		"starting_date":    start,
		"ending_date":      end,
		"responsibilities": strings.TrimSpace(f.Responsibilities),
		"skills":           cleanList(f.Skills),
	}
	if icon := strings.TrimSpace(f.Icon); icon != "" {
		data["icon"] = icon
	}
	return data, nil
}

type EducationForm struct {
	Title        string `json:"title" validate:"required"`
	Institution  string `json:"institution" validate:"required"`
	StartingDate string `json:"starting_date" validate:"required"`
	EndingDate   string `json:"ending_date"`
	Description  string `json:"description"`
	Grade        string `json:"grade"`
	Major        string `json:"major"`
	Type         string `json:"type" validate:"required,oneof=degree professional-certification diploma"`
}

func (f EducationForm) Collection() Collection { return CollectionQualifications }

func (f EducationForm) ToStorage() (map[string]any, error) {
	if err := validateForm(f); err != nil {
		return nil, err
	}
	start, err := ParseDate(f.StartingDate)
	if err != nil {
		return nil, err
	}
	end, err := optionalDate(f.EndingDate)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"title":         strings.TrimSpace(f.Title),
		"institution":   strings.TrimSpace(f.Institution),
		"starting_date": start,
		"ending_date":   end,
		"description":   strings.TrimSpace(f.Description),
		"grade":         strings.TrimSpace(f.Grade),
		"major":         strings.TrimSpace(f.Major),
		"type":          f.Type,
	}, nil
}

// MessageForm is a contact form submission. SentAt defaults to now.
type MessageForm struct {
	Name    string    `json:"name" validate:"required"`
	Email   string    `json:"email" validate:"required,email"`
	Subject string    `json:"subject" validate:"required"`
	Message string    `json:"message" validate:"required"`
	SentAt  time.Time `json:"-"`
}

func (f MessageForm) Collection() Collection { return CollectionMessages }

func (f MessageForm) ToStorage() (map[string]any, error) {
	if err := validateForm(f); err != nil {
		return nil, err
	}
	sent := f.SentAt
	if sent.IsZero() {
		sent = time.Now()
	}
	return map[string]any{
		"name":    strings.TrimSpace(f.Name),
		"email":   strings.ToLower(strings.TrimSpace(f.Email)),
		"subject": strings.TrimSpace(f.Subject),
		"message": strings.TrimSpace(f.Message),
		"date":    sent.UTC(),
		"read":    false,
	}, nil
}

type ContactDetailsForm struct {
	Email       string `json:"email" validate:"required,email"`
	GithubURL   string `json:"githubUrl" validate:"omitempty,url"`
	LinkedInURL string `json:"linkedInUrl" validate:"omitempty,url"`
	TwitterURL  string `json:"twitterUrl" validate:"omitempty,url"`
	Phone       string `json:"phone"`
}

// AboutForm edits the singleton profile stored on the admin document.
type AboutForm struct {
	Name           string             `json:"name" validate:"required"`
	Title          models.StringList  `json:"title"`
	AvatarURL      string             `json:"avatarUrl"`
	Description    string             `json:"description"`
	ResumeURL      string             `json:"resumeUrl"`
	ContactDetails ContactDetailsForm `json:"contactDetails"`
}

func (f AboutForm) ToStorage() (map[string]any, error) {
	if err := validateForm(f); err != nil {
		return nil, err
	}
	return map[string]any{
		"name":        strings.TrimSpace(f.Name),
		"title":       cleanList(f.Title),
		"avatarUrl":   strings.TrimSpace(f.AvatarURL),
		"description": strings.TrimSpace(f.Description),
		"resumeUrl":   strings.TrimSpace(f.ResumeURL),
		"contactDetails": map[string]any{
			"email":       strings.TrimSpace(f.ContactDetails.Email),
			"githubUrl":   strings.TrimSpace(f.ContactDetails.GithubURL),
			"linkedInUrl": strings.TrimSpace(f.ContactDetails.LinkedInURL),
			"twitterUrl":  strings.TrimSpace(f.ContactDetails.TwitterURL),
			"phone":       strings.TrimSpace(f.ContactDetails.Phone),
		},
	}, nil
}
