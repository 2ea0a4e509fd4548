package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"portfolio-backend-go/internal/docstore"
)

func newTestPortfolio() *Portfolio {
	return NewPortfolio(docstore.NewMemoryStore())
}

func decodeForm[T any](t *testing.T, raw string) T {
	t.Helper()
	var form T
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		t.Fatalf("decode form: %v", err)
	}
	return form
}

func TestAddThenFetchProjectRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()
	form := decodeForm[ProjectForm](t, `{
		"title": "Portfolio",
		"description": "Personal site",
		"date": "2024-01-15",
		"version": "v2",
		"stack": "React, Node.js, ",
		"url": {"code": "https://github.com/me/site", "image": "https://img/x.png", "image_public_id": "projects/x"}
	}`)

	result := p.AddItem(ctx, form)
	if !result.Success {
		t.Fatalf("Expected success, got %q", result.Message)
	}
	if result.ID == "" {
		t.Fatal("Expected generated id")
	}
	if result.Message != "Project Added Successfully" {
		t.Errorf("Unexpected message %q", result.Message)
	}

	projects, err := p.FetchProjects(ctx)
	if err != nil {
		t.Fatalf("FetchProjects failed: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("Expected 1 project, got %d", len(projects))
	}
	got := projects[0]
	if got.ID != result.ID {
		t.Errorf("Expected id %q, got %q", result.ID, got.ID)
	}
	if want := []string{"React", "Node.js"}; !reflect.DeepEqual([]string(got.Stack), want) {
		t.Errorf("Expected stack %v, got %v", want, got.Stack)
	}
	if got.Date != "2024-01-15T00:00:00.000Z" {
		t.Errorf("Expected ISO date, got %q", got.Date)
	}
	if got.URL.ImagePublicID != "projects/x" {
		t.Errorf("Expected image public id to survive, got %q", got.URL.ImagePublicID)
	}

	// the stored document keeps a native timestamp
	doc, err := p.Docs.Get(ctx, CollectionProjects.DocPath(result.ID))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, ok := doc.Data["date"].(time.Time); !ok {
		t.Errorf("Expected stored date to be a timestamp, got %T", doc.Data["date"])
	}
}

func TestFetchAllEmptyCollection(t *testing.T) {
	_, err := newTestPortfolio().FetchAll(context.Background(), CollectionSkills)
	if !errors.Is(err, ErrEmptyCollection) {
		t.Fatalf("Expected ErrEmptyCollection, got %v", err)
	}
	serr, ok := AsServiceError(err)
	if !ok || serr.Status != http.StatusNotFound {
		t.Fatalf("Expected not-found service error, got %#v", err)
	}
	if serr.Message != "No documents found in collection: skills" {
		t.Errorf("Unexpected message %q", serr.Message)
	}
}

func TestFetchAllRejectsUnknownCollection(t *testing.T) {
	_, err := newTestPortfolio().FetchAll(context.Background(), Collection("widgets"))
	serr, ok := AsServiceError(err)
	if !ok || serr.Status != http.StatusBadRequest {
		t.Fatalf("Expected bad request, got %v", err)
	}
}

func TestUpdateItemMissingIDLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()
	form := SkillForm{Name: "Go", Category: "backend", Icon: "SiGo"}
	added := p.AddItem(ctx, form)
	if !added.Success {
		t.Fatalf("AddItem failed: %s", added.Message)
	}

	result := p.UpdateItem(ctx, "does-not-exist", SkillForm{Name: "Rust", Category: "backend", Icon: "SiRust"})
	if result.Success {
		t.Fatal("Expected update of a missing id to fail")
	}
	if result.Status != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", result.Status)
	}

	docs, err := p.Docs.List(ctx, CollectionSkills.Path())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 1 || docs[0].Data["name"] != "Go" {
		t.Errorf("Expected store to be unchanged, got %#v", docs)
	}
}

func TestUpdateItemMergesFields(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()
	added := p.AddItem(ctx, ExperienceForm{Role: "Engineer", Company: "Acme", StartingDate: "2021-03-01", Skills: []string{"Go"}})
	if !added.Success {
		t.Fatalf("AddItem failed: %s", added.Message)
	}

	result := p.UpdateItem(ctx, added.ID, ExperienceForm{
		Role:         "Senior Engineer",
		Company:      "Acme",
		StartingDate: "2021-03-01",
		EndingDate:   "2023-06-30",
		Skills:       []string{"Go", " Postgres ", ""},
	})
	if !result.Success {
		t.Fatalf("UpdateItem failed: %s", result.Message)
	}
	if result.Message != "Experience updated successfully." {
		t.Errorf("Unexpected message %q", result.Message)
	}

	experiences, err := p.FetchExperiences(ctx)
	if err != nil {
		t.Fatalf("FetchExperiences failed: %v", err)
	}
	got := experiences[0]
	if got.Role != "Senior Engineer" {
		t.Errorf("Expected role to update, got %q", got.Role)
	}
	if got.EndingDate != "2023-06-30T00:00:00.000Z" {
		t.Errorf("Expected ending date, got %q", got.EndingDate)
	}
	if want := []string{"Go", "Postgres"}; !reflect.DeepEqual([]string(got.Skills), want) {
		t.Errorf("Expected skills %v, got %v", want, got.Skills)
	}
}

func TestOpenEndedExperienceStoresNullEndDate(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()
	added := p.AddItem(ctx, ExperienceForm{Role: "Engineer", Company: "Acme", StartingDate: "2024-02"})
	if !added.Success {
		t.Fatalf("AddItem failed: %s", added.Message)
	}
	if v, ok := added.Data["ending_date"]; !ok || v != nil {
		t.Errorf("Expected ending_date to be null, got %#v", v)
	}
	if added.Data["starting_date"] != "2024-02-01T00:00:00.000Z" {
		t.Errorf("Unexpected starting date %v", added.Data["starting_date"])
	}
}

func TestDeleteItemRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()
	var ids []string
	for _, title := range []string{"BSc", "MSc", "AWS"} {
		result := p.AddItem(ctx, EducationForm{Title: title, Institution: "Uni", StartingDate: "2019-09-01", Type: "degree"})
		if !result.Success {
			t.Fatalf("AddItem failed: %s", result.Message)
		}
		ids = append(ids, result.ID)
	}

	result := p.DeleteItem(ctx, CollectionQualifications, ids[1])
	if !result.Success {
		t.Fatalf("DeleteItem failed: %s", result.Message)
	}
	if result.Message != "Education/Qualification Deleted Successfully" {
		t.Errorf("Unexpected message %q", result.Message)
	}

	educations, err := p.FetchEducations(ctx)
	if err != nil {
		t.Fatalf("FetchEducations failed: %v", err)
	}
	if len(educations) != 2 || educations[0].ID != ids[0] || educations[1].ID != ids[2] {
		t.Errorf("Expected remaining ids %v, got %#v", []string{ids[0], ids[2]}, educations)
	}

	again := p.DeleteItem(ctx, CollectionQualifications, ids[1])
	if again.Success {
		t.Error("Expected second delete to fail")
	}
}

func TestDeleteMessages(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()
	added := p.AddItem(ctx, MessageForm{Name: "A", Email: "a@b.com", Subject: "Hi", Message: "hello"})
	result := p.DeleteItem(ctx, CollectionMessages, added.ID)
	if !result.Success || result.Message != "Message Deleted Successfully" {
		t.Errorf("Unexpected result %#v", result)
	}
}

func TestSkillOrderCoercion(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want *int
	}{
		{name: "numeric string", raw: `{"name":"Go","category":"backend","icon":"SiGo","order":"3"}`, want: intPtr(3)},
		{name: "number", raw: `{"name":"Go","category":"backend","icon":"SiGo","order":7}`, want: intPtr(7)},
		{name: "blank", raw: `{"name":"Go","category":"backend","icon":"SiGo","order":""}`},
		{name: "missing", raw: `{"name":"Go","category":"backend","icon":"SiGo"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			p := newTestPortfolio()
			result := p.AddItem(ctx, decodeForm[SkillForm](t, tc.raw))
			if !result.Success {
				t.Fatalf("AddItem failed: %s", result.Message)
			}
			skills, err := p.FetchSkills(ctx)
			if err != nil {
				t.Fatalf("FetchSkills failed: %v", err)
			}
			got := skills[0].Order
			if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
				t.Errorf("Expected order %v, got %v", deref(tc.want), deref(got))
			}
		})
	}
}

func TestSkillOrderRejectsText(t *testing.T) {
	p := newTestPortfolio()
	for _, order := range []Numeric{"first", "NaN", "Inf", "-Inf", "1e30", "-1e30"} {
		result := p.AddItem(context.Background(), SkillForm{Name: "Go", Category: "backend", Icon: "SiGo", Order: order})
		if result.Success || result.Status != http.StatusBadRequest {
			t.Errorf("%q: expected validation failure, got %#v", order, result)
			continue
		}
		if result.Message != "order must be a number" {
			t.Errorf("%q: unexpected message %q", order, result.Message)
		}
	}
	if _, err := p.FetchSkills(context.Background()); !errors.Is(err, ErrEmptyCollection) {
		t.Errorf("Expected nothing stored, got %v", err)
	}
}

func TestContactFormCreatesUnreadMessage(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()
	form := decodeForm[MessageForm](t, `{"name":"A","email":"a@b.com","subject":"Project Inquiry","message":"hi"}`)

	result := p.AddItem(ctx, form)
	if !result.Success {
		t.Fatalf("AddItem failed: %s", result.Message)
	}
	if result.Data["read"] != false {
		t.Errorf("Expected read=false, got %v", result.Data["read"])
	}
	if result.Data["_id"] != result.ID {
		t.Errorf("Expected record id %q, got %v", result.ID, result.Data["_id"])
	}

	messages, err := p.FetchMessages(ctx)
	if err != nil {
		t.Fatalf("FetchMessages failed: %v", err)
	}
	if len(messages) != 1 || messages[0].Subject != "Project Inquiry" || messages[0].Read {
		t.Errorf("Unexpected messages %#v", messages)
	}
	if _, err := time.Parse(ISOLayout, messages[0].Date); err != nil {
		t.Errorf("Expected ISO date, got %q", messages[0].Date)
	}
}

func TestAddItemValidation(t *testing.T) {
	cases := []struct {
		name string
		form Form
		want string
	}{
		{name: "missing email", form: MessageForm{Name: "A", Subject: "s", Message: "m"}, want: "email is required"},
		{name: "bad email", form: MessageForm{Name: "A", Email: "nope", Subject: "s", Message: "m"}, want: "email must be a valid email address"},
		{name: "bad category", form: SkillForm{Name: "Go", Category: "databases", Icon: "x"}, want: "category must be one of: programming, frontend, backend, fullstack, cloud, tools"},
		{name: "bad qualification", form: EducationForm{Title: "t", Institution: "i", StartingDate: "2020-01-01", Type: "bootcamp"}, want: "type must be one of: degree, professional-certification, diploma"},
		{name: "bad date", form: ProjectForm{Title: "t", Description: "d", Date: "yesterday"}, want: `invalid date: "yesterday"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestPortfolio()
			result := p.AddItem(context.Background(), tc.form)
			if result.Success {
				t.Fatal("Expected failure")
			}
			if result.Message != tc.want {
				t.Errorf("Expected message %q, got %q", tc.want, result.Message)
			}
			if result.Status != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", result.Status)
			}
		})
	}
}

func TestSetMessageRead(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()
	added := p.AddItem(ctx, MessageForm{Name: "A", Email: "a@b.com", Subject: "s", Message: "m"})

	if result := p.SetMessageRead(ctx, added.ID, true); !result.Success {
		t.Fatalf("SetMessageRead failed: %s", result.Message)
	}
	messages, _ := p.FetchMessages(ctx)
	if !messages[0].Read {
		t.Error("Expected message to be read")
	}
	if result := p.SetMessageRead(ctx, "missing", true); result.Success {
		t.Error("Expected missing message to fail")
	}
}

func TestAboutLifecycle(t *testing.T) {
	ctx := context.Background()
	p := newTestPortfolio()

	if _, err := p.FetchAbout(ctx); err == nil {
		t.Fatal("Expected missing profile to fail")
	}

	form := decodeForm[AboutForm](t, `{
		"name": "Jane Doe",
		"title": "Engineer, Writer",
		"description": "Builds things",
		"contactDetails": {"email": "jane@example.com", "githubUrl": "https://github.com/jane"}
	}`)
	if result := p.UpdateAbout(ctx, form); !result.Success {
		t.Fatalf("UpdateAbout failed: %s", result.Message)
	}
	form.Description = "Builds more things"
	if result := p.UpdateAbout(ctx, form); !result.Success {
		t.Fatalf("second UpdateAbout failed: %s", result.Message)
	}

	about, err := p.FetchAbout(ctx)
	if err != nil {
		t.Fatalf("FetchAbout failed: %v", err)
	}
	if about.Name != "Jane Doe" || about.Description != "Builds more things" {
		t.Errorf("Unexpected about %#v", about)
	}
	if want := []string{"Engineer", "Writer"}; !reflect.DeepEqual(about.Title, want) {
		t.Errorf("Expected titles %v, got %v", want, about.Title)
	}
	if about.ContactDetails.GithubURL != "https://github.com/jane" {
		t.Errorf("Unexpected contact details %#v", about.ContactDetails)
	}
}

func intPtr(v int) *int { return &v }

func deref(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
