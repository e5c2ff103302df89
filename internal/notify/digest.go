package notify

import "math/rand"

// Notification is one push payload.
type Notification struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// headlines is the static pool the evening digest draws from.
var headlines = []string{
	"Market hits all-time high as tech stocks rally.",
	"Crypto regulation talks heat up in global summit.",
	"Inflation rates show signs of cooling down.",
	"New green energy incentives announced for investors.",
	"Major merger announced in the banking sector.",
}

// MoodCheck is the daily mood reminder.
func MoodCheck() Notification {
	return Notification{
		Kind:  "mood_check",
		Title: "How are you feeling? 🧘",
		Body:  "Take a moment to log your mood and financial mindset today.",
	}
}

// DailyDigest picks one headline at random for the evening digest.
func DailyDigest() Notification {
	return digestAt(rand.Intn(len(headlines)))
}

func digestAt(i int) Notification {
	return Notification{
		Kind:  "newsletter",
		Title: "Daily Finance Digest 📈",
		Body:  "Today's Highlight: " + headlines[i] + " Check your dashboard for more insights!",
	}
}
