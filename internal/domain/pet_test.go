package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func validDetails() AdoptionDetails {
	return AdoptionDetails{
		Name:       "Al",
		Email:      "a@x.com",
		Phone:      "1",
		Address:    "2 St",
		City:       "X",
		State:      "Y",
		PostalCode: "000",
	}
}

func TestAdoptionDetailsMissingFields(t *testing.T) {
	d := validDetails()
	if !d.Complete() {
		t.Fatalf("expected complete details, missing %v", d.MissingFields())
	}

	d.Phone = "   "
	d.PostalCode = ""
	missing := d.MissingFields()
	if len(missing) != 2 || missing[0] != "phone" || missing[1] != "postalCode" {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
}

func TestAdoptionDetailsCountryAndMessageOptional(t *testing.T) {
	d := validDetails()
	d.Country = ""
	d.Message = ""
	if !d.Complete() {
		t.Fatalf("country and message must be optional")
	}
}

func TestNewPetViewHidesInternalFields(t *testing.T) {
	age := 3
	p := Pet{
		ID:        "p1",
		OwnerID:   "u1",
		Owner:     &User{ID: "u1", Username: "ana", Email: "ana@example.com", PasswordHash: "secret-hash"},
		Name:      "Milo",
		Species:   "dog",
		Age:       &age,
		Photos:    []string{"http://img/1.jpg"},
		Version:   7,
		Adopted:   false,
		CreatedAt: time.Now().UTC(),
	}

	view := NewPetView(p)
	if view.ID != "p1" || view.Owner == nil || view.Owner.Username != "ana" {
		t.Fatalf("unexpected view: %+v", view)
	}

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)
	for _, forbidden := range []string{"version", "Version", "secret-hash", "_id", "adoptedDetails"} {
		if strings.Contains(body, forbidden) {
			t.Fatalf("view leaks %q: %s", forbidden, body)
		}
	}
	if !strings.Contains(body, `"id":"p1"`) {
		t.Fatalf("view must expose public id: %s", body)
	}
}

func TestNewPetViewCopiesPhotos(t *testing.T) {
	p := Pet{ID: "p1", Photos: []string{"a"}}
	view := NewPetView(p)
	view.Photos[0] = "b"
	if p.Photos[0] != "a" {
		t.Fatalf("view must not alias pet photos")
	}
}

func TestNewPetViewsNeverNil(t *testing.T) {
	if NewPetViews(nil) == nil {
		t.Fatalf("expected empty non-nil slice")
	}
}
