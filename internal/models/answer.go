package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

type answerKind uint8

const (
	answerNone answerKind = iota
	answerSingle
	answerMultiple
)

// Answer is either a single option index, a set of option indices for
// multi-select questions, or nothing at all. It is used both for the correct
// answer of a question and for what a user picked.
//
// On the wire it keeps the historical shape: a bare number, a number array or null.
type Answer struct {
	kind    answerKind
	indices []int
}

func Single(index int) Answer {
	return Answer{kind: answerSingle, indices: []int{index}}
}

// Multiple keeps the indices as a sorted set.
func Multiple(indices ...int) Answer {
	set := slices.Clone(indices)
	slices.Sort(set)
	set = slices.Compact(set)
	return Answer{kind: answerMultiple, indices: set}
}

func Unanswered() Answer {
	return Answer{}
}

func (a Answer) IsAnswered() bool {
	return a.kind != answerNone
}

func (a Answer) IsMultiple() bool {
	return a.kind == answerMultiple
}

// Index returns the single selected index, or -1 for multi-select and blank answers.
func (a Answer) Index() int {
	if a.kind != answerSingle {
		return -1
	}
	return a.indices[0]
}

func (a Answer) Indices() []int {
	return slices.Clone(a.indices)
}

func (a Answer) Contains(index int) bool {
	return slices.Contains(a.indices, index)
}

// Toggle flips one index of a multi-select answer. Removing the last index
// leaves the answer blank.
func (a Answer) Toggle(index int) Answer {
	if a.Contains(index) {
		rest := slices.DeleteFunc(a.Indices(), func(i int) bool { return i == index })
		if len(rest) == 0 {
			return Unanswered()
		}
		return Multiple(rest...)
	}
	return Multiple(append(a.Indices(), index)...)
}

// Validate checks that the answer is set and points inside an option list of the given size.
func (a Answer) Validate(optionCount int) error {
	if !a.IsAnswered() {
		return fmt.Errorf("correct answer is required")
	}
	if len(a.indices) == 0 {
		return fmt.Errorf("correct answer must contain at least one index")
	}
	for _, i := range a.indices {
		if i < 0 || i >= optionCount {
			return fmt.Errorf("correct answer index %d out of range [0, %d)", i, optionCount)
		}
	}
	return nil
}

// Matches reports whether the user's answer is correct when a is the correct answer.
// Multi-select questions need exactly the same set of indices.
func (a Answer) Matches(user Answer) bool {
	if !user.IsAnswered() || !a.IsAnswered() {
		return false
	}
	if a.IsMultiple() {
		return user.IsMultiple() && slices.Equal(a.indices, user.indices)
	}
	return !user.IsMultiple() && a.indices[0] == user.indices[0]
}

func (a Answer) Equal(other Answer) bool {
	return a.kind == other.kind && slices.Equal(a.indices, other.indices)
}

func (a Answer) String() string {
	switch a.kind {
	case answerSingle:
		return string(rune('A' + a.indices[0]))
	case answerMultiple:
		var buf bytes.Buffer
		for i, idx := range a.indices {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteRune(rune('A' + idx))
		}
		return buf.String()
	default:
		return "-"
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case answerSingle:
		return json.Marshal(a.indices[0])
	case answerMultiple:
		if a.indices == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.indices)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = Unanswered()
		return nil
	case len(data) > 0 && data[0] == '[':
		var indices []int
		if err := json.Unmarshal(data, &indices); err != nil {
			return fmt.Errorf("invalid answer list: %w", err)
		}
		*a = Multiple(indices...)
		return nil
	default:
		var index int
		if err := json.Unmarshal(data, &index); err != nil {
			return fmt.Errorf("invalid answer index: %w", err)
		}
		*a = Single(index)
		return nil
	}
}

func (a Answer) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch a.kind {
	case answerSingle:
		return bson.MarshalValue(int32(a.indices[0]))
	case answerMultiple:
		values := make([]int32, len(a.indices))
		for i, idx := range a.indices {
			values[i] = int32(idx)
		}
		return bson.MarshalValue(values)
	default:
		return bson.TypeNull, nil, nil
	}
}

func (a *Answer) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeNull, bson.TypeUndefined:
		*a = Unanswered()
		return nil
	case bson.TypeArray:
		var indices []int
		if err := raw.Unmarshal(&indices); err != nil {
			return fmt.Errorf("invalid answer list: %w", err)
		}
		*a = Multiple(indices...)
		return nil
	case bson.TypeInt32, bson.TypeInt64, bson.TypeDouble:
		var index int
		if err := raw.Unmarshal(&index); err != nil {
			return fmt.Errorf("invalid answer index: %w", err)
		}
		*a = Single(index)
		return nil
	default:
		return fmt.Errorf("cannot decode answer from BSON type %s", t)
	}
}
