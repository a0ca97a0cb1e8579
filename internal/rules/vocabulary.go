package rules

import "strings"

// CharacterType separates the living from the undying.
type CharacterType string

const (
	Mortal   CharacterType = "mortal"
	Immortal CharacterType = "immortal"
)

// Valid reports whether c is a known character type.
func (c CharacterType) Valid() bool {
	return c == Mortal || c == Immortal
}

// ParseCharacterType converts s into a CharacterType, defaulting to Mortal.
func ParseCharacterType(s string) CharacterType {
	c := CharacterType(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return Mortal
	}
	return c
}

// Relationship is how a character stands toward the vampire.
type Relationship string

const (
	Friend  Relationship = "friend"
	Enemy   Relationship = "enemy"
	Neutral Relationship = "neutral"
	Lover   Relationship = "lover"
	Family  Relationship = "family"
	Servant Relationship = "servant"
	Master  Relationship = "master"
)

var relationships = map[Relationship]bool{
	Friend: true, Enemy: true, Neutral: true, Lover: true,
	Family: true, Servant: true, Master: true,
}

// Valid reports whether r is a known relationship.
func (r Relationship) Valid() bool {
	return relationships[r]
}

// ParseRelationship converts s into a Relationship, defaulting to Neutral
// when s is blank or unknown.
func ParseRelationship(s string) Relationship {
	r := Relationship(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return Neutral
	}
	return r
}
