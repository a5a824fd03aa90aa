// Package panel models the carrier-service admin panel and renders it as HTML.
package panel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chandanbangre/hikeonAssessment/internal/carrier"
)

type Phase int

const (
	Idle Phase = iota
	ModalOpen
	Submitting
	ErrorShown
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case ModalOpen:
		return "modal_open"
	case Submitting:
		return "submitting"
	case ErrorShown:
		return "error_shown"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var ErrInvalidTransition = errors.New("invalid panel transition")

// State is the creation flow. Error and Success are mutually exclusive.
type State struct {
	Phase       Phase
	Name        string
	CallbackURL string
	Error       string
	Success     string
	// ConfirmDisabled is set by a locally detected duplicate until the input changes.
	ConfirmDisabled bool
}

type Event interface{ event() }

type (
	Open   struct{}
	Cancel struct{}
	// Submit carries the names currently listed so duplicates are caught locally.
	Submit struct {
		Name        string
		CallbackURL string
		Existing    []string
	}
	Succeeded struct{ Name string }
	Failed    struct{ Message string }
	Edit      struct {
		Name        string
		CallbackURL string
	}
)

func (Open) event()      {}
func (Cancel) event()    {}
func (Submit) event()    {}
func (Succeeded) event() {}
func (Failed) event()    {}
func (Edit) event()      {}

// Apply returns the next state. The receiver is never modified.
func (s State) Apply(ev Event) (State, error) {
	switch e := ev.(type) {
	case Open:
		if s.Phase == Idle {
			return State{Phase: ModalOpen}, nil
		}
	case Cancel:
		if s.Phase == ModalOpen || s.Phase == ErrorShown {
			return State{Phase: Idle}, nil
		}
	case Submit:
		if s.Phase != ModalOpen {
			break
		}
		next := State{Phase: Submitting, Name: e.Name, CallbackURL: e.CallbackURL}
		for _, n := range e.Existing {
			if n == e.Name {
				next.Phase = ErrorShown
				next.Error = carrier.DuplicateMessage
				next.ConfirmDisabled = true
				break
			}
		}
		return next, nil
	case Succeeded:
		if s.Phase == Submitting {
			return State{Phase: Idle, Success: fmt.Sprintf("Your %s Carrier Service is created on CallbackURL %s", e.Name, s.CallbackURL)}, nil
		}
	case Failed:
		if s.Phase == Submitting {
			msg := strings.TrimSpace(e.Message)
			if msg == "" {
				msg = "Something went wrong"
			}
			next := s
			next.Phase = ErrorShown
			next.Error = msg
			return next, nil
		}
	case Edit:
		if s.Phase == ErrorShown || s.Phase == ModalOpen {
			return State{Phase: ModalOpen, Name: e.Name, CallbackURL: e.CallbackURL}, nil
		}
	}
	return s, fmt.Errorf("%w: %T in %s", ErrInvalidTransition, ev, s.Phase)
}

func (s State) ModalVisible() bool {
	return s.Phase == ModalOpen || s.Phase == ErrorShown || s.Phase == Submitting
}

// SeedEnabled gates the seed-products action while a creation is in flight.
func (s State) SeedEnabled() bool { return s.Phase != Submitting }

type Tone string

const (
	ToneSuccess  Tone = "success"
	ToneCritical Tone = "critical"
)

type Banner struct {
	Tone    Tone
	Message string
}

func (s State) Banner() *Banner {
	switch {
	case s.Error != "":
		return &Banner{Tone: ToneCritical, Message: s.Error}
	case s.Success != "":
		return &Banner{Tone: ToneSuccess, Message: s.Success}
	}
	return nil
}
