package sessions

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/strrl/chatdash/pkg/models"
)

var (
	sampleNames = []string{
		"Alice Waters", "Bob Stone", "Carla Mendes", "Dmitri Volkov", "Emeka Obi",
		"Fatima Zahra", "Grace Liu", "Hiro Tanaka", "Ines Duarte", "",
	}
	sampleTexts = []string{
		"Can we move the sync to Thursday?",
		"Shipping the build now",
		"I pushed the fix, please take another look when you have a minute",
		"Thanks!",
		"Where did we land on the pricing page copy?",
		"ok",
		"The staging deploy is failing on migrations again",
		"Lunch?",
	}
)

// record mirrors one line of the data file
type record struct {
	ID          string         `json:"id"`
	Participant recordPerson   `json:"participant"`
	Latest      *recordMessage `json:"latestMessage"`
	UnreadCount int            `json:"unreadCount"`
}

type recordPerson struct {
	Name string `json:"name,omitempty"`
}

type recordMessage struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// GenerateSample builds n summaries with recent timestamps, newest first.
// Some have no name, no messages or a large unread count.
func GenerateSample(n int, now time.Time, rng *rand.Rand) []models.SessionSummary {
	out := make([]models.SessionSummary, 0, n)
	at := now
	for i := 0; i < n; i++ {
		at = at.Add(-time.Duration(rng.Intn(90)+1) * time.Minute)

		s := models.SessionSummary{
			ID:          uuid.NewString(),
			Participant: models.Participant{Name: sampleNames[rng.Intn(len(sampleNames))]},
		}
		switch roll := rng.Intn(10); {
		case roll == 0:
			// no messages yet
		case roll < 4:
			s.LatestMessage = &models.LatestMessage{
				Text:      sampleTexts[rng.Intn(len(sampleTexts))],
				Timestamp: at.UTC().Format(time.RFC3339),
			}
			s.UnreadCount = rng.Intn(12) + 1
			if roll == 1 {
				s.UnreadCount += 100
			}
		default:
			s.LatestMessage = &models.LatestMessage{
				Text:      sampleTexts[rng.Intn(len(sampleTexts))],
				Timestamp: at.UTC().Format(time.RFC3339),
			}
		}
		out = append(out, s)
	}
	return out
}

// WriteJSONL writes one record per line in the format Load reads
func WriteJSONL(w io.Writer, sessions []models.SessionSummary) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, s := range sessions {
		rec := record{
			ID:          s.ID,
			Participant: recordPerson{Name: s.Participant.Name},
			UnreadCount: s.UnreadCount,
		}
		if s.LatestMessage != nil {
			rec.Latest = &recordMessage{Text: s.LatestMessage.Text, Timestamp: s.LatestMessage.Timestamp}
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode session %s: %w", s.ID, err)
		}
	}
	return bw.Flush()
}
