package entities

import "fmt"

// Slot is one of the two fixed daily time categories.
type Slot int

const (
	SlotMorning Slot = iota
	SlotEvening
)

// Slots lists every slot in display order.
var Slots = []Slot{SlotMorning, SlotEvening}

func (s Slot) String() string {
	switch s {
	case SlotMorning:
		return "morning"
	case SlotEvening:
		return "evening"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	return s == SlotMorning || s == SlotEvening
}

// ParseSlot parses "morning" or "evening".
func ParseSlot(v string) (Slot, error) {
	switch v {
	case "morning":
		return SlotMorning, nil
	case "evening":
		return SlotEvening, nil
	}
	return 0, fmt.Errorf("unknown slot %q", v)
}
