package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"portfolio-backend-go/internal/docstore"
	"portfolio-backend-go/internal/models"
)

// ISOLayout is the string form every stored timestamp takes on the way out.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Record is a document as handed to callers: timestamps as ISO strings and
// the document id under "_id".
type Record map[string]any

// Result reports the outcome of a write. Expected write failures are carried
// here instead of being returned as errors.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	Data    Record `json:"-"`
	Status  int    `json:"-"`
}

func failure(status int, message string) Result {
	return Result{Success: false, Message: message, Status: status}
}

func failureFrom(err error) Result {
	if serr, ok := AsServiceError(err); ok {
		return failure(serr.Status, serr.Message)
	}
	return failure(http.StatusInternalServerError, err.Error())
}

type Portfolio struct {
	Docs docstore.Store
}

func NewPortfolio(docs docstore.Store) *Portfolio {
	return &Portfolio{Docs: docs}
}

// FetchAbout reads the profile stored on the admin document.
func (p *Portfolio) FetchAbout(ctx context.Context) (models.About, error) {
	doc, err := p.Docs.Get(ctx, AdminDocPath)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.About{}, ErrNotFound("Admin document does not exist.")
	}
	if err != nil {
		return models.About{}, WrapError(err, "fetch about")
	}
	raw, ok := doc.Data["about"].(map[string]any)
	if !ok {
		return models.About{}, ErrNotFound("Admin document does not exist.")
	}
	record := toRecord(docstore.Document{ID: doc.ID, Data: raw})
	return FromStorage[models.About](record)
}

// FetchAll returns every document of the collection. An empty collection is
// reported as ErrEmptyCollection.
func (p *Portfolio) FetchAll(ctx context.Context, collection Collection) ([]Record, error) {
	if !collection.Valid() {
		return nil, ErrBadRequest(fmt.Sprintf("unknown collection: %s", collection))
	}
	docs, err := p.Docs.List(ctx, collection.Path())
	if err != nil {
		return nil, WrapError(err, "fetch "+string(collection))
	}
	if len(docs) == 0 {
		return nil, errEmpty(collection)
	}
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRecord(doc))
	}
	return records, nil
}

func (p *Portfolio) FetchSkills(ctx context.Context) ([]models.Skill, error) {
	return fetchTyped[models.Skill](ctx, p, CollectionSkills)
}

func (p *Portfolio) FetchProjects(ctx context.Context) ([]models.Project, error) {
	return fetchTyped[models.Project](ctx, p, CollectionProjects)
}

func (p *Portfolio) FetchExperiences(ctx context.Context) ([]models.Experience, error) {
	return fetchTyped[models.Experience](ctx, p, CollectionExperiences)
}

func (p *Portfolio) FetchEducations(ctx context.Context) ([]models.Education, error) {
	return fetchTyped[models.Education](ctx, p, CollectionQualifications)
}

func (p *Portfolio) FetchMessages(ctx context.Context) ([]models.Message, error) {
	return fetchTyped[models.Message](ctx, p, CollectionMessages)
}

func fetchTyped[T any](ctx context.Context, p *Portfolio, collection Collection) ([]T, error) {
	records, err := p.FetchAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(records))
	for _, record := range records {
		item, err := FromStorage[T](record)
		if err != nil {
			return nil, WrapError(err, "decode "+string(collection))
		}
		items = append(items, item)
	}
	return items, nil
}

// AddItem validates and shapes the form, then inserts it into its collection.
func (p *Portfolio) AddItem(ctx context.Context, form Form) Result {
	collection := form.Collection()
	data, err := form.ToStorage()
	if err != nil {
		return failureFrom(err)
	}
	id, err := p.Docs.Add(ctx, collection.Path(), data)
	if err != nil {
		log.Printf("add %s: %v", collection, err)
		return failureFrom(err)
	}
	return Result{
		Success: true,
		Message: collection.Label() + " Added Successfully",
		ID:      id,
		Data:    toRecord(docstore.Document{ID: id, Data: data}),
		Status:  http.StatusCreated,
	}
}

// UpdateItem merges the shaped form into an existing document.
func (p *Portfolio) UpdateItem(ctx context.Context, id string, form Form) Result {
	collection := form.Collection()
	if id == "" {
		return failure(http.StatusBadRequest, collection.Label()+" Id Not Found")
	}
	data, err := form.ToStorage()
	if err != nil {
		return failureFrom(err)
	}
	docPath := collection.DocPath(id)
	if err := p.Docs.Update(ctx, docPath, data); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return failure(http.StatusNotFound, fmt.Sprintf("%s not found: %s", collection.Label(), id))
		}
		log.Printf("update %s %s: %v", collection, id, err)
		return failureFrom(err)
	}
	doc, err := p.Docs.Get(ctx, docPath)
	if err != nil {
		return failureFrom(err)
	}
	return Result{
		Success: true,
		Message: collection.Label() + " updated successfully.",
		ID:      id,
		Data:    toRecord(doc),
		Status:  http.StatusOK,
	}
}

func (p *Portfolio) DeleteItem(ctx context.Context, collection Collection, id string) Result {
	if !collection.Valid() {
		return failure(http.StatusBadRequest, fmt.Sprintf("unknown collection: %s", collection))
	}
	if err := p.Docs.Delete(ctx, collection.DocPath(id)); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return failure(http.StatusNotFound, fmt.Sprintf("%s not found: %s", collection.Label(), id))
		}
		log.Printf("delete %s %s: %v", collection, id, err)
		return failureFrom(err)
	}
	return Result{
		Success: true,
		Message: collection.Label() + " Deleted Successfully",
		ID:      id,
		Status:  http.StatusOK,
	}
}

func (p *Portfolio) SetMessageRead(ctx context.Context, id string, read bool) Result {
	docPath := CollectionMessages.DocPath(id)
	if err := p.Docs.Update(ctx, docPath, map[string]any{"read": read}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return failure(http.StatusNotFound, "Message not found: "+id)
		}
		log.Printf("mark message %s: %v", id, err)
		return failureFrom(err)
	}
	return Result{Success: true, Message: "Message updated successfully.", ID: id, Status: http.StatusOK}
}

// UpdateAbout replaces the profile, creating the admin document on first use.
func (p *Portfolio) UpdateAbout(ctx context.Context, form AboutForm) Result {
	data, err := form.ToStorage()
	if err != nil {
		return failureFrom(err)
	}
	patch := map[string]any{"about": data}
	err = p.Docs.Update(ctx, AdminDocPath, patch)
	if errors.Is(err, docstore.ErrNotFound) {
		err = p.Docs.Set(ctx, AdminDocPath, patch)
	}
	if err != nil {
		log.Printf("update about: %v", err)
		return failureFrom(err)
	}
	return Result{
		Success: true,
		Message: "Profile updated successfully.",
		Data:    toRecord(docstore.Document{ID: "admin", Data: data}),
		Status:  http.StatusOK,
	}
}

// FromStorage decodes a record into its model type.
func FromStorage[T any](record Record) (T, error) {
	var out T
	raw, err := json.Marshal(record)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

func toRecord(doc docstore.Document) Record {
	record := make(Record, len(doc.Data)+1)
	for key, value := range doc.Data {
		record[key] = isoValue(value)
	}
	record["_id"] = doc.ID
	return record
}

func isoValue(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(ISOLayout)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = isoValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = isoValue(item)
		}
		return out
	default:
		return value
	}
}
