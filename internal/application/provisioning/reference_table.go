package provisioning

import (
	"strings"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/google/uuid"
)

type refKey struct {
	entityType provisioning.EntityType
	code       string
}

// ReferenceTable maps natural codes to the IDs of entities created earlier in
// the same apply run. Codes are namespaced by entity type and compared
// case-insensitively. A table lives for one run and is never persisted.
type ReferenceTable struct {
	entries map[refKey]uuid.UUID
}

// NewReferenceTable creates an empty table
func NewReferenceTable() *ReferenceTable {
	return &ReferenceTable{entries: make(map[refKey]uuid.UUID)}
}

// Register records code -> id. A later registration for the same code wins.
func (r *ReferenceTable) Register(entityType provisioning.EntityType, code string, id uuid.UUID) {
	code = normalizeRefCode(code)
	if code == "" || id == uuid.Nil {
		return
	}
	r.entries[refKey{entityType, code}] = id
}

// Lookup returns the id registered for code, if any.
func (r *ReferenceTable) Lookup(entityType provisioning.EntityType, code string) (uuid.UUID, bool) {
	id, ok := r.entries[refKey{entityType, normalizeRefCode(code)}]
	return id, ok
}

// Len returns the number of registered codes
func (r *ReferenceTable) Len() int {
	return len(r.entries)
}

func normalizeRefCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
