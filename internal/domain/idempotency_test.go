package domain

import (
	"testing"
	"time"
)

func TestIdempotency_InsertAndUniqueScope(t *testing.T) {
	db := newDomainDB(t)
	now := time.Now().UTC()

	rec := &Idempotency{
		ID:         "id-1",
		UserID:     "u1",
		Scope:      "/api/recipes",
		Key:        "k1",
		ResourceID: "42",
		Status:     201,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert valid: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Scope != "/api/recipes" || got.ResourceID != "42" || got.Status != 201 {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt should be set automatically")
	}

	dup := &Idempotency{ID: "id-2", UserID: "u1", Scope: "/api/recipes", Key: "k1", ResourceID: "43", Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (user_id, scope, key)")
	}

	other := &Idempotency{ID: "id-3", UserID: "u1", Scope: "/api/other", Key: "k1", ResourceID: "44", Status: 201, ExpiresAt: now.Add(time.Hour)}
	if err := db.Create(other).Error; err != nil {
		t.Fatalf("same key on another scope should be accepted: %v", err)
	}
}
