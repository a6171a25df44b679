package orders

import (
	"errors"
	"fmt"
)

// StockEffect is the inventory side effect of a status transition.
type StockEffect int

const (
	// EffectNone leaves stock untouched.
	EffectNone StockEffect = iota
	// EffectRestore adds every item quantity back to its variant.
	EffectRestore
	// EffectDeduct subtracts every item quantity again, clamped at zero.
	// Used when a cancelled order is reactivated.
	EffectDeduct
)

// ErrInvalidTransition indicates a move the lifecycle does not allow.
var ErrInvalidTransition = errors.New("orders: invalid status transition")

// transitions is the explicit lifecycle table. pending → confirmed → shipped
// → delivered; cancelled is reachable from every non-terminal state and a
// cancelled order may be reactivated to any non-cancelled state.
var transitions = map[Status]map[Status]StockEffect{
	StatusPending: {
		StatusConfirmed: EffectNone,
		StatusCancelled: EffectRestore,
	},
	StatusConfirmed: {
		StatusShipped:   EffectNone,
		StatusCancelled: EffectRestore,
	},
	StatusShipped: {
		StatusDelivered: EffectNone,
		StatusCancelled: EffectRestore,
	},
	StatusDelivered: {},
	StatusCancelled: {
		StatusPending:   EffectDeduct,
		StatusConfirmed: EffectDeduct,
		StatusShipped:   EffectDeduct,
		StatusDelivered: EffectDeduct,
	},
}

func init() {
	// The table must cover every state exactly once, terminal states must be
	// empty, and cancellation must always restore stock.
	states := []Status{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}
	if len(transitions) != len(states) {
		panic("orders: transition table size mismatch")
	}
	for _, from := range states {
		targets, ok := transitions[from]
		if !ok {
			panic(fmt.Sprintf("orders: transition table missing state %s", from))
		}
		for to, effect := range targets {
			if to == from {
				panic(fmt.Sprintf("orders: self transition in table for %s", from))
			}
			if to == StatusCancelled && effect != EffectRestore {
				panic("orders: cancellation must restore stock")
			}
			if from == StatusCancelled && effect != EffectDeduct {
				panic("orders: reactivation must re-deduct stock")
			}
		}
	}
	if len(transitions[StatusDelivered]) != 0 {
		panic("orders: delivered is terminal")
	}
}

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s Status) bool {
	_, ok := transitions[s]
	return ok
}

// TransitionEffect resolves the stock effect of moving from one status to
// another, or ErrInvalidTransition when the lifecycle forbids it. A
// same-status move is the caller's no-op and never reaches this function.
func TransitionEffect(from, to Status) (StockEffect, error) {
	targets, ok := transitions[from]
	if !ok {
		return EffectNone, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, from)
	}
	effect, ok := targets[to]
	if !ok {
		return EffectNone, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return effect, nil
}
