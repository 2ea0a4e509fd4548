package state

import (
	"slices"
	"sort"
	"strings"
	"time"

	"portfolio-backend-go/internal/models"
)

// unorderedSkill is the display position of skills without an explicit order.
const unorderedSkill = 99

// PseudoCategories are stack tags that group projects rather than name a
// technology.
var PseudoCategories = []string{"Full Stack", "DevOps", "UI/UX"}

var priorityTabs = []string{"Full Stack", "DevOps", "UI/UX", "Next.js", "React"}

func skillOrder(s models.Skill) int {
	if s.Order == nil {
		return unorderedSkill
	}
	return *s.Order
}

func SortSkillsForDisplay(skills []models.Skill) []models.Skill {
	sorted := append([]models.Skill(nil), skills...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return skillOrder(sorted[i]) < skillOrder(sorted[j])
	})
	return sorted
}

// SkillsByCategory filters to one category in display order. "all" or an
// empty category keeps every skill.
func SkillsByCategory(skills []models.Skill, category string) []models.Skill {
	if category == "" || category == "all" {
		return SortSkillsForDisplay(skills)
	}
	filtered := make([]models.Skill, 0, len(skills))
	for _, skill := range skills {
		if string(skill.Category) == category {
			filtered = append(filtered, skill)
		}
	}
	return SortSkillsForDisplay(filtered)
}

func ProjectsByDate(projects []models.Project) []models.Project {
	sorted := append([]models.Project(nil), projects...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return parseISO(sorted[i].Date).After(parseISO(sorted[j].Date))
	})
	return sorted
}

// ProjectsByStack keeps projects tagged with stack, newest first. "All" or an
// empty stack keeps every project.
func ProjectsByStack(projects []models.Project, stack string) []models.Project {
	if stack == "" || stack == "All" {
		return ProjectsByDate(projects)
	}
	filtered := make([]models.Project, 0, len(projects))
	for _, project := range projects {
		for _, tag := range project.Stack {
			if tag == stack {
				filtered = append(filtered, project)
				break
			}
		}
	}
	return ProjectsByDate(filtered)
}

// SearchProjects matches query against title, description and stack.
func SearchProjects(projects []models.Project, query string) []models.Project {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return ProjectsByDate(projects)
	}
	matched := make([]models.Project, 0, len(projects))
	for _, project := range projects {
		if projectMatches(project, query) {
			matched = append(matched, project)
		}
	}
	return ProjectsByDate(matched)
}

func projectMatches(project models.Project, query string) bool {
	if strings.Contains(strings.ToLower(project.Title), query) ||
		strings.Contains(strings.ToLower(project.Description), query) {
		return true
	}
	for _, tag := range project.Stack {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// DisplayStack is the project stack without pseudo categories.
func DisplayStack(project models.Project) []string {
	out := make([]string, 0, len(project.Stack))
	for _, tag := range project.Stack {
		if !slices.Contains(PseudoCategories, tag) {
			out = append(out, tag)
		}
	}
	return out
}

// ProjectTabs lists "All" plus the priority tags used by at least one project.
func ProjectTabs(projects []models.Project) []string {
	used := map[string]bool{}
	for _, project := range projects {
		for _, tag := range project.Stack {
			used[tag] = true
		}
	}
	tabs := []string{"All"}
	for _, tag := range priorityTabs {
		if used[tag] {
			tabs = append(tabs, tag)
		}
	}
	return tabs
}

// Timeline merges experience and education, newest end date first. Open
// ended entries sort as ending now.
func Timeline(experiences []models.Experience, educations []models.Education, now time.Time) []models.TimelineItem {
	items := make([]models.TimelineItem, 0, len(experiences)+len(educations))
	for _, exp := range experiences {
		tags := append([]string{}, exp.Skills...)
		items = append(items, models.TimelineItem{
			ID:          exp.ID,
			Category:    "work",
			Title:       exp.Role,
			Place:       exp.Company,
			Description: exp.Responsibilities,
			Tags:        tags,
			Period:      period(exp.StartingDate, exp.EndingDate),
			SortDate:    sortDate(exp.EndingDate, now),
		})
	}
	for _, edu := range educations {
		tags := []string{}
		if edu.Grade != "" {
			tags = append(tags, "Grade: "+edu.Grade)
		}
		if edu.Type != "" {
			tags = append(tags, "Qualification Type: "+strings.Replace(string(edu.Type), "-", " ", 1))
		}
		items = append(items, models.TimelineItem{
			ID:          edu.ID,
			Category:    "education",
			Title:       edu.Title,
			Place:       edu.Institution,
			Major:       edu.Major,
			Description: edu.Description,
			Tags:        tags,
			Period:      period(edu.StartingDate, edu.EndingDate),
			SortDate:    sortDate(edu.EndingDate, now),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SortDate > items[j].SortDate
	})
	return items
}

func UnreadCount(inbox []models.Message) int {
	count := 0
	for _, message := range inbox {
		if !message.Read {
			count++
		}
	}
	return count
}

func period(start, end string) string {
	from := yearOf(start)
	to := yearOf(end)
	if to == "" {
		to = "Present"
	}
	return from + " - " + to
}

func yearOf(value string) string {
	t := parseISO(value)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006")
}

func sortDate(end string, now time.Time) int64 {
	t := parseISO(end)
	if t.IsZero() {
		t = now
	}
	return t.UnixMilli()
}

func parseISO(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
