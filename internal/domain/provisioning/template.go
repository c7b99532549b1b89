package provisioning

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

// Field limits mirrored by the templates table.
const (
	MaxTemplateNameLength        = 100
	MaxTemplateCodeLength        = 50
	MaxTemplateTypeLength        = 50
	MaxTemplateDescriptionLength = 500
)

// Template is a named, versioned bundle of provisioning items identified by a
// globally unique code. Templates are process-wide: they are not owned by any
// organization.
type Template struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Type        string
	Revision    int
	Active      bool
	Description string
	Items       []TemplateItem
	DeletedAt   *time.Time
}

// TemplateItem is one instruction of a template: an entity type plus its payload.
type TemplateItem struct {
	shared.BaseEntity
	TemplateID uuid.UUID
	EntityType EntityType
	Data       map[string]any
	SortOrder  int
}

// NewTemplate creates an active template at revision 1.
func NewTemplate(code, name, templateType string) (*Template, error) {
	code = strings.TrimSpace(code)
	if err := validateTemplateCode(code); err != nil {
		return nil, err
	}
	t := &Template{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Revision:          1,
		Active:            true,
	}
	if err := t.setDetails(name, templateType, ""); err != nil {
		return nil, err
	}
	t.AddDomainEvent(NewTemplateCreatedEvent(t))
	return t, nil
}

// Update changes the mutable metadata. The code is never touched.
func (t *Template) Update(name, templateType string, revision int, active bool, description string) error {
	if t.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update a deleted template")
	}
	if revision < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Template version must be at least 1")
	}
	if err := t.setDetails(name, templateType, description); err != nil {
		return err
	}
	t.Revision = revision
	t.Active = active
	t.Touch()
	t.IncrementVersion()
	t.AddDomainEvent(NewTemplateUpdatedEvent(t))
	return nil
}

// SetRevision sets the business version.
func (t *Template) SetRevision(revision int) error {
	if revision < 1 {
		return shared.NewDomainError("INVALID_INPUT", "Template version must be at least 1")
	}
	t.Revision = revision
	return nil
}

// SetDescription sets the free-form description.
func (t *Template) SetDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxTemplateDescriptionLength {
		return shared.NewDomainError("INVALID_INPUT", "Template description cannot exceed 500 characters")
	}
	t.Description = description
	return nil
}

// Activate makes the template applicable.
func (t *Template) Activate() {
	t.Active = true
	t.Touch()
}

// Deactivate blocks the template from being applied.
func (t *Template) Deactivate() {
	t.Active = false
	t.Touch()
}

// IsDeleted reports whether the template was soft-deleted.
func (t *Template) IsDeleted() bool {
	return t.DeletedAt != nil
}

// MarkDeleted soft-deletes the template together with its items.
func (t *Template) MarkDeleted() error {
	if t.IsDeleted() {
		return shared.NewDomainError("INVALID_STATE", "Template is already deleted")
	}
	now := time.Now()
	t.DeletedAt = &now
	t.Touch()
	t.AddDomainEvent(NewTemplateDeletedEvent(t))
	return nil
}

// AddItem normalizes entityType and data and appends a new item. When
// sortOrder is nil the item is placed after the current last item.
func (t *Template) AddItem(rawEntityType string, data map[string]any, sortOrder *int) (*TemplateItem, error) {
	entityType, ok := NormalizeEntityType(rawEntityType)
	if !ok {
		return nil, shared.NewDomainError("INVALID_INPUT", "Entity type is required")
	}
	if !entityType.IsSupported() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported entity type: "+entityType.String())
	}
	order := t.NextSortOrder()
	if sortOrder != nil {
		order = *sortOrder
	}
	item := TemplateItem{
		BaseEntity: shared.NewBaseEntity(),
		TemplateID: t.ID,
		EntityType: entityType,
		Data:       NormalizePayload(data),
		SortOrder:  order,
	}
	// created_at breaks sort order ties, so it must strictly increase at the
	// microsecond precision the database keeps.
	item.CreatedAt = item.CreatedAt.Truncate(time.Microsecond)
	if last := t.lastItemCreatedAt(); !item.CreatedAt.After(last) {
		item.CreatedAt = last.Add(time.Microsecond)
	}
	item.UpdatedAt = item.CreatedAt
	t.Items = append(t.Items, item)
	return &t.Items[len(t.Items)-1], nil
}

// RemoveItem drops the item with the given id.
func (t *Template) RemoveItem(itemID uuid.UUID) error {
	for i := range t.Items {
		if t.Items[i].ID == itemID {
			t.Items = append(t.Items[:i], t.Items[i+1:]...)
			t.Touch()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Template item not found")
}

// ClearItems removes all items, used before replacing them wholesale.
func (t *Template) ClearItems() {
	t.Items = nil
	t.Touch()
}

func (t *Template) lastItemCreatedAt() time.Time {
	var last time.Time
	for _, item := range t.Items {
		if item.CreatedAt.After(last) {
			last = item.CreatedAt
		}
	}
	return last
}

// NextSortOrder returns one past the highest sort order in use.
func (t *Template) NextSortOrder() int {
	if len(t.Items) == 0 {
		return 0
	}
	highest := t.Items[0].SortOrder
	for _, item := range t.Items[1:] {
		if item.SortOrder > highest {
			highest = item.SortOrder
		}
	}
	return highest + 1
}

// OrderedItems returns the items in application order: ascending sort order,
// ties broken by insertion order.
func (t *Template) OrderedItems() []TemplateItem {
	items := make([]TemplateItem, len(t.Items))
	copy(items, t.Items)
	SortItems(items)
	return items
}

// SortItems sorts items in place by sort order, creation time and id.
func SortItems(items []TemplateItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

// HasPayload reports whether the item carries any data.
func (i *TemplateItem) HasPayload() bool {
	return len(i.Data) > 0
}

func (t *Template) setDetails(name, templateType, description string) error {
	name = strings.TrimSpace(name)
	templateType = strings.TrimSpace(templateType)
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Template name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxTemplateNameLength {
		return shared.NewDomainError("INVALID_INPUT", "Template name cannot exceed 100 characters")
	}
	if templateType == "" {
		return shared.NewDomainError("INVALID_INPUT", "Template type cannot be empty")
	}
	if utf8.RuneCountInString(templateType) > MaxTemplateTypeLength {
		return shared.NewDomainError("INVALID_INPUT", "Template type cannot exceed 50 characters")
	}
	if err := t.SetDescription(description); err != nil {
		return err
	}
	t.Name = name
	t.Type = templateType
	return nil
}

func validateTemplateCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_INPUT", "Template code cannot be empty")
	}
	if utf8.RuneCountInString(code) > MaxTemplateCodeLength {
		return shared.NewDomainError("INVALID_INPUT", "Template code cannot exceed 50 characters")
	}
	if strings.ContainsAny(code, " \t\r\n/") {
		return shared.NewDomainError("INVALID_INPUT", "Template code cannot contain whitespace or slashes")
	}
	return nil
}
