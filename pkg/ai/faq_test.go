package ai

import "testing"

func TestMatchFAQKeywords(t *testing.T) {
	messages := []string{
		"How do I withdraw my money?",
		"WITHDRAWAL pending for 2 days",
		"I want to deposit some funds",
		"what's my balance",
		"which plans do you offer",
		"how to link my account",
		"is 2fa required?",
		"do you charge a fee",
		"can I speak to someone",
	}
	for _, msg := range messages {
		if _, ok := matchFAQ(msg); !ok {
			t.Fatalf("%q: expected a match", msg)
		}
	}
}

func TestMatchFAQFirstMatchWins(t *testing.T) {
	// The message mentions balance and withdrawal; the withdrawal entry
	// sits earlier in the catalog and must win.
	entry, ok := matchFAQ("my balance after the withdrawal looks wrong")
	if !ok {
		t.Fatal("expected a match")
	}
	if entry.Keywords[0] != "withdraw" {
		t.Fatalf("expected the withdrawal entry, got keywords %v", entry.Keywords)
	}
}

func TestMatchFAQCaseInsensitive(t *testing.T) {
	entry, ok := matchFAQ("DEPOSIT instructions please")
	if !ok || entry.Keywords[0] != "deposit" {
		t.Fatalf("expected deposit entry, ok=%v", ok)
	}
}

func TestMatchFAQNoMatch(t *testing.T) {
	if _, ok := matchFAQ("what is the weather today"); ok {
		t.Fatal("expected no match")
	}
}
