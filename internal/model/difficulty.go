package model

import (
	"fmt"
	"strings"
)

// Difficulty is the canonical question difficulty enum. All external
// spellings are coerced through ParseDifficulty at the boundary; internal
// code only ever sees these three values.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists all canonical values in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the canonical values.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty coerces the spellings found in imported data sets
// (English labels, legacy "Mid", numeric levels, Chinese labels) into the
// canonical enum.
func ParseDifficulty(raw string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy", "e", "0", "1", "简单":
		return DifficultyEasy, nil
	case "medium", "mid", "m", "2", "中等":
		return DifficultyMedium, nil
	case "hard", "h", "3", "困难":
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("unknown difficulty %q", raw)
}
