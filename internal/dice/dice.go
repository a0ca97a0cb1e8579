// Package dice rolls the d10 and d6 that move a vampire between prompts.
package dice

import (
	"errors"
	"math/rand"
	"regexp"
	"strconv"
)

// ErrInvalidNotation is returned by ParseNotation for malformed dice strings.
var ErrInvalidNotation = errors.New("invalid dice notation")

// D10 rolls a 10-sided die (1-10)
func D10() int {
	return rand.Intn(10) + 1
}

// D6 rolls a 6-sided die (1-6)
func D6() int {
	return rand.Intn(6) + 1
}

// Roll is one throw of the prompt dice.
type Roll struct {
	D10 int `json:"d10"`
	D6  int `json:"d6"`
}

// Movement is how far the roll moves along the prompts, from -5 to 9.
func (r Roll) Movement() int {
	return r.D10 - r.D6
}

// NextPrompt applies the roll to the current prompt number. Prompt numbers
// never drop below 1.
func (r Roll) NextPrompt(current int) int {
	return max(1, current+r.Movement())
}

// Roller produces prompt rolls.
type Roller interface {
	Roll() Roll
}

// RandomRoller rolls independent uniform dice from math/rand.
type RandomRoller struct{}

// Roll throws a d10 and a d6.
func (RandomRoller) Roll() Roll {
	return Roll{D10: D10(), D6: D6()}
}

// Fixed is a Roller that always returns the same roll.
type Fixed Roll

// Roll returns the fixed roll.
func (f Fixed) Roll() Roll {
	return Roll(f)
}

// RollN rolls n dice with the specified number of sides and returns the total
func RollN(n, sides int) int {
	total := 0
	for i := 0; i < n; i++ {
		total += rand.Intn(sides) + 1
	}
	return total
}

// diceNotationRegex matches dice notation like "1d6", "2d4+1", "1d10-2"
var diceNotationRegex = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Notation is a parsed dice expression such as "2d6+1".
type Notation struct {
	Count int `json:"count"`
	Sides int `json:"sides"`
	Bonus int `json:"bonus"`
}

// ParseNotation parses "NdS", "NdS+B" or "NdS-B". Counts are limited to 1-100
// and sides to 2-1000.
func ParseNotation(s string) (Notation, error) {
	matches := diceNotationRegex.FindStringSubmatch(s)
	if matches == nil {
		return Notation{}, ErrInvalidNotation
	}

	count, err := strconv.Atoi(matches[1])
	if err != nil || count < 1 || count > 100 {
		return Notation{}, ErrInvalidNotation
	}
	sides, err := strconv.Atoi(matches[2])
	if err != nil || sides < 2 || sides > 1000 {
		return Notation{}, ErrInvalidNotation
	}

	bonus := 0
	if matches[3] != "" {
		bonus, _ = strconv.Atoi(matches[3])
	}
	return Notation{Count: count, Sides: sides, Bonus: bonus}, nil
}

// Roll rolls the notation and returns the total.
func (n Notation) Roll() int {
	return RollN(n.Count, n.Sides) + n.Bonus
}

// String formats the notation back into "NdS+B" form.
func (n Notation) String() string {
	s := strconv.Itoa(n.Count) + "d" + strconv.Itoa(n.Sides)
	switch {
	case n.Bonus > 0:
		s += "+" + strconv.Itoa(n.Bonus)
	case n.Bonus < 0:
		s += strconv.Itoa(n.Bonus)
	}
	return s
}
