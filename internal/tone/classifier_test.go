package tone

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"plain statement", "The account number is 4412.", Neutral},
		{"gratitude", "Thank you so much for the help.", Positive},
		{"anger", "This is ridiculous, your service is useless.", Angry},
		{"fear", "I am afraid I cannot pay, please don't do this.", Fearful},
		{"urgency", "You must pay now, this is the final notice.", Urgent},
		{"empty message", "", Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.message); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifyAngryWinsTies(t *testing.T) {
	// One angry stem against one positive stem: angry wins the tie
	got := Classify("Thank you for nothing, this is a scam.")
	if got != Angry {
		t.Errorf("Expected angry on a tie with positive, got %s", got)
	}
}

func TestClassifyPositiveOutweighsAngry(t *testing.T) {
	// Multiple positive stems against a single angry one: positive prevails,
	// and with no fearful or urgent stems the label is positive.
	got := Classify("Thank you, that is a great solution, happy to proceed even though the charge was wrong.")
	if got != Positive {
		t.Errorf("Expected positive when positive stems outnumber angry, got %s", got)
	}
}

func TestClassifyFearfulBeforeUrgent(t *testing.T) {
	// Fearful is checked before urgent once angry is ruled out
	got := Classify("I am worried, it says urgent on the letter.")
	if got != Fearful {
		t.Errorf("Expected fearful to take priority over urgent, got %s", got)
	}
}

func TestClassifyMatchesInflectedForms(t *testing.T) {
	if got := Classify("Stop harassing me at work."); got != Angry {
		t.Errorf("Expected stem match on 'harassing', got %s", got)
	}

	if got := Classify("I appreciated the callback."); got != Positive {
		t.Errorf("Expected stem match on 'appreciated', got %s", got)
	}
}
