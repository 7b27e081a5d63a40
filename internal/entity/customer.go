package entity

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID               uuid.UUID     `json:"id"`
	Phone            string        `json:"phone,omitempty"`
	Email            string        `json:"email,omitempty"`
	Name             string        `json:"name,omitempty"`
	BillingProfileID string        `json:"billingProfileId"`
	Instruments      []*Instrument `json:"paymentMethods"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// Instrument is a tokenized card saved with the processor. ID is the processor's reference.
type Instrument struct {
	ID        string    `json:"id"`
	Brand     string    `json:"brand"`
	Last4     string    `json:"last4"`
	ExpMonth  int       `json:"expMonth"`
	ExpYear   int       `json:"expYear"`
	IsDefault bool      `json:"isDefault"`
	AddedAt   time.Time `json:"addedAt"`
}

type CustomerLookup struct {
	Phone string `json:"phone" validate:"omitempty,min=4,max=20"`
	Email string `json:"email" validate:"omitempty,email"`
	Name  string `json:"name"  validate:"omitempty,max=100"`
}

func (l CustomerLookup) Empty() bool {
	return l.Phone == "" && l.Email == ""
}

// Matches reports whether the customer shares a phone or an email with the lookup.
func (c *Customer) Matches(l CustomerLookup) bool {
	if l.Phone != "" && c.Phone == l.Phone {
		return true
	}
	return l.Email != "" && c.Email == l.Email
}

func (c *Customer) Instrument(id string) (*Instrument, bool) {
	for _, in := range c.Instruments {
		if in.ID == id {
			return in, true
		}
	}
	return nil, false
}

func (c *Customer) DefaultInstrument() (*Instrument, bool) {
	for _, in := range c.Instruments {
		if in.IsDefault {
			return in, true
		}
	}
	return nil, false
}

// AddInstrument appends in and, when in is default, clears the flag on every other instrument.
func (c *Customer) AddInstrument(in *Instrument) {
	if in.IsDefault {
		for _, existing := range c.Instruments {
			existing.IsDefault = false
		}
	}
	c.Instruments = append(c.Instruments, in)
}

func (c *Customer) RemoveInstrument(id string) bool {
	kept := c.Instruments[:0]
	removed := false
	for _, in := range c.Instruments {
		if in.ID == id {
			removed = true
			continue
		}
		kept = append(kept, in)
	}
	c.Instruments = kept
	return removed
}

func (c *Customer) Clone() *Customer {
	cp := *c
	cp.Instruments = make([]*Instrument, 0, len(c.Instruments))
	for _, in := range c.Instruments {
		inCopy := *in
		cp.Instruments = append(cp.Instruments, &inCopy)
	}
	return &cp
}
