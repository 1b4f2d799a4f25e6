package ws

import (
	"context"
	"encoding/json"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voicecheck/internal/ports"
)

const eventAnalysisCompleted = "analysis_completed"

type analysisMessage struct {
	Type       string  `json:"type"`
	AnalysisID int     `json:"analysisId"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

// Broadcast forwards analysis events to their rooms until ctx is done or
// the channel is closed.
func Broadcast(ctx context.Context, hub *Hub, events <-chan ports.AnalysisEvent, log *logger.ZapLogger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			payload, err := json.Marshal(analysisMessage{
				Type:       eventAnalysisCompleted,
				AnalysisID: ev.AnalysisID,
				Prediction: ev.Prediction,
				Confidence: ev.Confidence,
			})
			if err != nil {
				log.Log(logger.LogEntry{
					Level:   "error",
					Message: "[SEND][ERR] json marshal failed",
					Error:   err,
				})
				continue
			}

			sent := hub.SendToRoom(ev.RoomID, payload)
			log.Log(logger.LogEntry{
				Level:   "info",
				Message: "[SEND]",
				Fields: map[string]any{
					"room":       ev.RoomID,
					"analysisID": ev.AnalysisID,
					"conns":      sent,
				},
			})
		}
	}
}
