package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// User owns batches; every other record is reachable from exactly one
	// user through its batch.
	User struct {
		ID           int64
		Email        string
		Name         string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Batch (lote) is a named grouping of animals owned by one user.
	Batch struct {
		ID        int64
		UserID    int64
		Name      string
		Address   string
		IsActive  bool
		ImagePath string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Animal belongs to exactly one batch and is deleted with it.
	Animal struct {
		ID        int64
		BatchID   int64
		Code      string // optional, globally unique when present
		Species   string
		Breed     string // optional
		Sex       Sex
		BirthDate time.Time
	}

	// Cost belongs to one batch and optionally references one animal of the
	// same batch. The animal reference is cleared when the animal is deleted,
	// the cost row itself survives.
	Cost struct {
		ID          int64
		BatchID     int64
		AnimalID    int64 // 0 means general (batch-level) cost
		Type        CostType
		Description string
		Amount      Money
		Date        time.Time
		Notes       string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Weight is a weighing record for one animal.
	Weight struct {
		ID       int64
		AnimalID int64
		Date     time.Time
		Kilos    float64
		Notes    string
	}

	// Production is a production record (milk, eggs, ...) for one animal.
	Production struct {
		ID       int64
		AnimalID int64
		Date     time.Time
		Type     string
		Quantity float64
	}
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidWeight       = errors.New("invalid weight")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrInvalidSex          = errors.New("invalid sex")
	ErrInvalidCostType     = errors.New("invalid cost type")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptySpecies        = errors.New("empty species")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyProductionType = errors.New("empty production type")
	ErrEmailTaken          = errors.New("email already registered")
	ErrCodeTaken           = errors.New("animal code already in use")
	ErrAnimalBatchMismatch = errors.New("animal does not belong to the cost batch")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// IsValidation reports whether err stems from rejected input rather than an
// internal failure, so the HTTP layer can answer 422 instead of 500.
func IsValidation(err error) bool {
	for _, e := range []error{
		ErrInvalidInput, ErrInvalidDate, ErrInvalidAmount, ErrInvalidWeight,
		ErrInvalidQuantity, ErrInvalidSex, ErrInvalidCostType, ErrEmptyName,
		ErrEmptySpecies, ErrEmptyDescription, ErrEmptyProductionType,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func (u User) Validate() error {
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b Batch) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 50 {
		return fmt.Errorf("%w: name too long (max 50 characters)", ErrInvalidInput)
	}
	if len(b.Address) > 50 {
		return fmt.Errorf("%w: address too long (max 50 characters)", ErrInvalidInput)
	}
	return nil
}

func (a Animal) Validate() error {
	if strings.TrimSpace(a.Species) == "" {
		return ErrEmptySpecies
	}
	if len(a.Code) > 50 {
		return fmt.Errorf("%w: code too long (max 50 characters)", ErrInvalidInput)
	}
	if !a.Sex.Valid() {
		return ErrInvalidSex
	}
	if a.BirthDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (c Cost) Validate() error {
	if !c.Type.Valid() {
		return ErrInvalidCostType
	}
	if strings.TrimSpace(c.Description) == "" {
		return ErrEmptyDescription
	}
	if len(c.Description) > 120 {
		return fmt.Errorf("%w: description too long (max 120 characters)", ErrInvalidInput)
	}
	if err := c.Amount.Validate(); err != nil {
		return err
	}
	if c.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (w Weight) Validate() error {
	if w.Date.IsZero() {
		return ErrInvalidDate
	}
	if w.Kilos <= 0 {
		return ErrInvalidWeight
	}
	if len(w.Notes) > 300 {
		return fmt.Errorf("%w: notes too long (max 300 characters)", ErrInvalidInput)
	}
	return nil
}

func (p Production) Validate() error {
	if p.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(p.Type) == "" {
		return ErrEmptyProductionType
	}
	if len(p.Type) > 30 {
		return fmt.Errorf("%w: type too long (max 30 characters)", ErrInvalidInput)
	}
	if p.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}
