package domain

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateKind validates an identifier kind
func ValidateKind(kind Kind) error {
	return validation.Validate(kind,
		validation.Required,
		validation.In(KindAccount, KindRealm, KindCharacter).Error("must be one of: account, realm, character"),
	)
}

// ValidateSegment checks that an identifier is usable as a single path segment
// inside the source root.
func ValidateSegment(name string) error {
	switch {
	case name == "":
		return errors.New("cannot be blank")
	case name == "." || name == "..":
		return errors.New("cannot be a relative path element")
	case strings.ContainsAny(name, "/\\\x00"):
		return errors.New("cannot contain path separators")
	}
	return nil
}

var segmentRule = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	return ValidateSegment(s)
})

// Validate checks a single mapping. New requires a non-empty Old.
func (m Mapping) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Kind, validation.By(func(interface{}) error { return ValidateKind(m.Kind) })),
		validation.Field(&m.Old,
			validation.When(m.New != "", validation.Required.Error("is required when a new name is given")),
			segmentRule,
		),
		validation.Field(&m.New, segmentRule),
	)
}

// Validate checks every mapping in the set and that each sits in its own slot.
// Failures are returned as *ValidationError.
func (s MappingSet) Validate() error {
	errs := validation.Errors{}
	slots := []struct {
		key  string
		kind Kind
		m    *Mapping
	}{
		{"account", KindAccount, s.Account},
		{"realm", KindRealm, s.Realm},
		{"character", KindCharacter, s.Character},
	}
	for _, slot := range slots {
		if slot.m == nil {
			continue
		}
		if slot.m.Kind != slot.kind {
			errs[slot.key] = errors.New("kind does not match its slot")
			continue
		}
		if err := slot.m.Validate(); err != nil {
			errs[slot.key] = err
		}
	}
	if err := errs.Filter(); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
