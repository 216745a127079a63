package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestAnswerMatches(t *testing.T) {
	testCases := []struct {
		name    string
		correct Answer
		user    Answer
		want    bool
	}{
		{"single correct", Single(1), Single(1), true},
		{"single wrong", Single(1), Single(2), false},
		{"single unanswered", Single(0), Unanswered(), false},
		{"single vs multi pick", Single(1), Multiple(1), false},
		{"multiple same order", Multiple(0, 2), Multiple(0, 2), true},
		{"multiple any order", Multiple(2, 0), Multiple(0, 2), true},
		{"multiple subset", Multiple(0, 2), Multiple(0), false},
		{"multiple superset", Multiple(0, 2), Multiple(0, 1, 2), false},
		{"multiple vs single", Multiple(1), Single(1), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.correct.Matches(tc.user); got != tc.want {
				t.Errorf("Matches(%v, %v) = %v, want %v", tc.correct, tc.user, got, tc.want)
			}
		})
	}
}

func TestAnswerValidate(t *testing.T) {
	if err := Single(3).Validate(4); err != nil {
		t.Errorf("Expected index 3 to be valid for 4 options, got %v", err)
	}
	if err := Single(4).Validate(4); err == nil {
		t.Error("Expected index 4 to be rejected for 4 options")
	}
	if err := Single(-1).Validate(4); err == nil {
		t.Error("Expected negative index to be rejected")
	}
	if err := Multiple(0, 5).Validate(4); err == nil {
		t.Error("Expected out of range multi index to be rejected")
	}
	if err := Multiple().Validate(4); err == nil {
		t.Error("Expected empty multi answer to be rejected")
	}
	if err := Unanswered().Validate(4); err == nil {
		t.Error("Expected missing answer to be rejected")
	}
}

func TestAnswerToggle(t *testing.T) {
	a := Unanswered().Toggle(2)
	if !a.IsMultiple() || !a.Contains(2) {
		t.Fatalf("Expected multi answer containing 2, got %v", a)
	}
	a = a.Toggle(0)
	if got := a.Indices(); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Expected [0 2], got %v", got)
	}
	a = a.Toggle(0).Toggle(2)
	if a.IsAnswered() {
		t.Errorf("Expected blank answer after removing every index, got %v", a)
	}
}

func TestAnswerJSONShape(t *testing.T) {
	testCases := []struct {
		answer Answer
		want   string
	}{
		{Single(2), "2"},
		{Multiple(3, 1), "[1,3]"},
		{Unanswered(), "null"},
	}
	for _, tc := range testCases {
		data, err := json.Marshal(tc.answer)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if string(data) != tc.want {
			t.Errorf("Expected %s, got %s", tc.want, data)
		}
	}

	var answers []Answer
	if err := json.Unmarshal([]byte(`[1, [0, 2], null]`), &answers); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !answers[0].Equal(Single(1)) || !answers[1].Equal(Multiple(0, 2)) || answers[2].IsAnswered() {
		t.Errorf("Unexpected decoded answers: %v", answers)
	}
}

func TestAnswerBSONShape(t *testing.T) {
	doc := struct {
		Single   Answer `bson:"single"`
		Multiple Answer `bson:"multiple"`
		Blank    Answer `bson:"blank"`
	}{Single(1), Multiple(0, 3), Unanswered()}

	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	raw := bson.Raw(data)
	if raw.Lookup("single").Type != bson.TypeInt32 {
		t.Errorf("Expected single answer stored as int32, got %s", raw.Lookup("single").Type)
	}
	if raw.Lookup("multiple").Type != bson.TypeArray {
		t.Errorf("Expected multiple answer stored as array, got %s", raw.Lookup("multiple").Type)
	}
	if raw.Lookup("blank").Type != bson.TypeNull {
		t.Errorf("Expected blank answer stored as null, got %s", raw.Lookup("blank").Type)
	}

	var decoded struct {
		Single   Answer `bson:"single"`
		Multiple Answer `bson:"multiple"`
		Blank    Answer `bson:"blank"`
	}
	if err := bson.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !decoded.Single.Equal(doc.Single) || !decoded.Multiple.Equal(doc.Multiple) || decoded.Blank.IsAnswered() {
		t.Errorf("Decoded answers differ: %+v", decoded)
	}
}

func TestAnswerFromStoredDouble(t *testing.T) {
	data, err := bson.Marshal(bson.M{"correctAnswer": 2.0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var q Question
	if err := bson.Unmarshal(data, &q); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if q.CorrectAnswer.Index() != 2 {
		t.Errorf("Expected index 2 from stored double, got %v", q.CorrectAnswer)
	}
}
