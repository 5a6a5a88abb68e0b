package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	broker   = flag.String("broker", "localhost:9092", "Kafka broker address")
	topic    = flag.String("topic", "gaze-samples", "Topic to publish gaze samples to")
	streams  = flag.Int("streams", 2, "Number of simulated gaze streams")
	rateHz   = flag.Int("rate", 60, "Samples per second per stream")
	calibErr = flag.Float64("calibration-error", 0.02, "Calibration error attached to each sample")
)

// GazeMessage matches the JSON accepted by the fixationlens Kafka source.
type GazeMessage struct {
	Stream           string  `json:"stream"`
	Task             string  `json:"task"`
	T                float64 `json:"t"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	C                float64 `json:"c"`
	CalibrationError float64 `json:"calibration_error"`
}

// eye simulates fixations separated by saccades, with occasional dropouts.
type eye struct {
	stream     string
	cx, cy     float64
	fixationMs float64
	elapsedMs  float64
}

func (e *eye) next(rng *rand.Rand, t float64, dt float64) (GazeMessage, bool) {
	e.elapsedMs += dt
	if e.elapsedMs >= e.fixationMs {
		// Saccade to a new target.
		e.cx, e.cy = rng.Float64(), rng.Float64()
		e.fixationMs = 150 + rng.Float64()*450
		e.elapsedMs = 0
	}
	// ~2% blinks produce no sample.
	if rng.Float64() < 0.02 {
		return GazeMessage{}, false
	}
	return GazeMessage{
		Stream:           e.stream,
		Task:             "free_view",
		T:                t,
		X:                e.cx + rng.NormFloat64()*0.004,
		Y:                e.cy + rng.NormFloat64()*0.004,
		C:                0.8 + rng.Float64()*0.2,
		CalibrationError: *calibErr,
	}, true
}

func main() {
	flag.Parse()

	writer := &kafka.Writer{
		Addr:     kafka.TCP(*broker),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Fatalf("Error closing kafka writer: %v", err)
		}
	}()
	log.Printf("Starting gaze producer for topic: %s on broker: %s", *topic, *broker)

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signals
		log.Println("Shutdown signal received, stopping producer...")
		cancel()
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	eyes := make([]*eye, *streams)
	for i := range eyes {
		eyes[i] = &eye{stream: "subject-" + string(rune('A'+i)), fixationMs: 300}
	}

	interval := time.Second / time.Duration(*rateHz)
	dt := float64(interval) / float64(time.Millisecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case now := <-ticker.C:
			t := float64(now.Sub(start)) / float64(time.Millisecond)
			msgs := make([]kafka.Message, 0, len(eyes))
			for _, e := range eyes {
				g, ok := e.next(rng, t, dt)
				if !ok {
					continue
				}
				value, err := json.Marshal(g)
				if err != nil {
					log.Printf("Error marshalling message: %v", err)
					continue
				}
				msgs = append(msgs, kafka.Message{Key: []byte(g.Stream), Value: value})
			}
			if len(msgs) == 0 {
				continue
			}
			if err := writer.WriteMessages(ctx, msgs...); err != nil {
				if ctx.Err() != nil {
					log.Println("Context cancelled, exiting message loop.")
					return
				}
				log.Printf("Error writing messages: %v", err)
			}

		case <-ctx.Done():
			log.Println("Producer loop stopped.")
			return
		}
	}
}
